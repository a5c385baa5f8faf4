// Package config holds the run settings for the benchmark.
//
// The hyper-parameters are literal constants returned by Default; the
// command line may only redirect where data is read from and how verbose
// logging is.
package config

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

// Settings captures the knobs for a training run.
type Settings struct {
	BatchSize    int
	Epochs       int
	LearningRate float64

	// TimeSteps × Features must equal the raster size of one image.
	TimeSteps int
	Features  int
	Units     int
	Classes   int

	Seed     int64
	DataDir  string
	LogLevel string
}

// Overrides captures CLI supplied values. Zero values are ignored.
type Overrides struct {
	DataDir  string
	LogLevel string
}

// Default returns the benchmark configuration: MNIST read as 4 time steps
// of 196 pixels, a 196-unit recurrent layer and 10 classes.
func Default() *Settings {
	return &Settings{
		BatchSize:    100,
		Epochs:       5,
		LearningRate: 0.015,
		TimeSteps:    4,
		Features:     196,
		Units:        196,
		Classes:      10,
		Seed:         42,
		DataDir:      "data/mnist",
		LogLevel:     "info",
	}
}

// ApplyOverrides updates s using any non-zero override.
func (s *Settings) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		s.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
}

// Validate verifies the settings are runnable.
func (s *Settings) Validate() error {
	if s == nil {
		return errors.New("settings are nil")
	}
	if s.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be > 0", s.BatchSize)
	}
	if s.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be > 0", s.Epochs)
	}
	if s.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be > 0", s.LearningRate)
	}
	if s.TimeSteps <= 0 || s.Features <= 0 {
		return errors.NewValidationError("time_steps/features", "must be > 0", [2]int{s.TimeSteps, s.Features})
	}
	if s.Units <= 0 {
		return errors.NewValidationError("units", "must be > 0", s.Units)
	}
	if s.Classes < 2 {
		return errors.NewValidationError("classes", "must be >= 2", s.Classes)
	}
	if s.DataDir == "" {
		return errors.NewValidationError("data_dir", "must be set", s.DataDir)
	}
	return ValidateLogLevel(s.LogLevel)
}

// ValidateLogLevel reports whether level is one the logger accepts.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
}

// InputSize is the number of pixels a sample must carry.
func (s *Settings) InputSize() int {
	return s.TimeSteps * s.Features
}
