package nn

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Optimizer applies accumulated gradients to parameters.
type Optimizer interface {
	Name() string
	Step(params []*Param) error
}

// SGD is plain stochastic gradient descent: w ← w − lr·∇w.
type SGD struct {
	LearningRate float64
}

// NewSGD validates the learning rate and returns the optimizer.
func NewSGD(learningRate float64) (*SGD, error) {
	if learningRate <= 0 {
		return nil, errors.NewValidationError("learning_rate", "must be > 0", learningRate)
	}
	return &SGD{LearningRate: learningRate}, nil
}

func (o *SGD) Name() string { return "SGD" }

func (o *SGD) Step(params []*Param) error {
	for _, p := range params {
		var delta mat.Dense
		delta.Scale(-o.LearningRate, p.Grad)
		p.Value.Add(p.Value, &delta)
	}
	return nil
}

// ZeroGrad clears the gradients of params.
func ZeroGrad(params []*Param) {
	for _, p := range params {
		p.Grad.Zero()
	}
}
