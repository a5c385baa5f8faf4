package nn

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected layer y = x·W + b applied to every matrix of
// its input.
type Dense struct {
	Units int

	kernel *Param
	bias   *Param
	inputs []*mat.Dense
}

// NewDense creates a dense layer with the given number of output units.
func NewDense(units int) *Dense {
	return &Dense{Units: units}
}

func (l *Dense) Name() string { return "dense" }

func (l *Dense) Build(in Shape, rng *rand.Rand) (Shape, error) {
	if l.Units <= 0 {
		return Shape{}, errors.NewValidationError("units", "must be > 0", l.Units)
	}
	l.kernel = newParam(l.Name()+"/kernel", in.Features, l.Units, GlorotUniform, rng)
	l.bias = newParam(l.Name()+"/bias", 1, l.Units, Zeros, rng)
	return Shape{TimeSteps: in.TimeSteps, Features: l.Units}, nil
}

func (l *Dense) Forward(x []*mat.Dense) ([]*mat.Dense, error) {
	if l.kernel == nil {
		return nil, errors.ErrNotBuilt
	}
	l.inputs = x
	out := make([]*mat.Dense, len(x))
	for t, xt := range x {
		var y mat.Dense
		y.Mul(xt, l.kernel.Value)
		addRowVector(&y, l.bias.Value)
		out[t] = &y
	}
	return out, nil
}

func (l *Dense) Backward(grad []*mat.Dense) ([]*mat.Dense, error) {
	if len(grad) != len(l.inputs) {
		return nil, errors.NewDimensionError("Dense.Backward", len(l.inputs), len(grad), 0)
	}
	dx := make([]*mat.Dense, len(grad))
	for t, g := range grad {
		var dw mat.Dense
		dw.Mul(l.inputs[t].T(), g)
		l.kernel.Grad.Add(l.kernel.Grad, &dw)
		accumulateColSums(l.bias.Grad, g)

		var d mat.Dense
		d.Mul(g, l.kernel.Value.T())
		dx[t] = &d
	}
	return dx, nil
}

func (l *Dense) Params() []*Param {
	if l.kernel == nil {
		return nil
	}
	return []*Param{l.kernel, l.bias}
}
