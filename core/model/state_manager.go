// Package model provides lifecycle state management for models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

// StateManager tracks whether a model has been built, compiled and fitted
// in a thread-safe manner. Models hold it by composition.
type StateManager struct {
	mu sync.RWMutex

	built    bool
	compiled bool
	fitted   bool

	timeSteps int
	features  int
	samples   int
	epochs    int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// SetBuilt records that parameters exist for the given input shape.
func (s *StateManager) SetBuilt(timeSteps, features int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.built = true
	s.timeSteps = timeSteps
	s.features = features
}

// IsBuilt returns whether parameters have been allocated.
func (s *StateManager) IsBuilt() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.built
}

// SetCompiled marks the model as compiled.
func (s *StateManager) SetCompiled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compiled = true
}

// IsCompiled returns whether an optimizer and loss are attached.
func (s *StateManager) IsCompiled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compiled
}

// SetFitted marks the model as fitted and records what it was trained on.
// Repeated calls accumulate epochs.
func (s *StateManager) SetFitted(samples, epochs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.samples = samples
	s.epochs += epochs
}

// RequireCompiled returns a NotCompiledError naming method if the model
// has not been compiled.
func (s *StateManager) RequireCompiled(modelName, method string) error {
	if !s.IsCompiled() {
		return errors.NewNotCompiledError(modelName, method)
	}
	return nil
}

// State is a snapshot of the lifecycle for logging and debugging.
type State struct {
	Built     bool `json:"built"`
	Compiled  bool `json:"compiled"`
	Fitted    bool `json:"fitted"`
	TimeSteps int  `json:"time_steps,omitempty"`
	Features  int  `json:"features,omitempty"`
	Samples   int  `json:"samples,omitempty"`
	Epochs    int  `json:"epochs,omitempty"`
}

// GetState returns the current state.
func (s *StateManager) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Built:     s.built,
		Compiled:  s.compiled,
		Fitted:    s.fitted,
		TimeSteps: s.timeSteps,
		Features:  s.features,
		Samples:   s.samples,
		Epochs:    s.epochs,
	}
}
