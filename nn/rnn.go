package nn

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SimpleRNN runs a fully connected recurrent cell over every time step of
// its input and returns the final hidden state:
//
//	h_t = tanh(x_t·W + h_{t-1}·U + b),  h_0 = 0
type SimpleRNN struct {
	Units int

	kernel    *Param
	recurrent *Param
	bias      *Param

	// Per-step inputs and hidden states from the last Forward; states[0]
	// is the zero initial state.
	inputs []*mat.Dense
	states []*mat.Dense
}

// NewSimpleRNN creates an RNN layer with the given number of units.
func NewSimpleRNN(units int) *SimpleRNN {
	return &SimpleRNN{Units: units}
}

func (l *SimpleRNN) Name() string { return "simple_rnn" }

// Build allocates W (glorot uniform), U (orthogonal) and b (zeros).
func (l *SimpleRNN) Build(in Shape, rng *rand.Rand) (Shape, error) {
	if in.TimeSteps <= 0 {
		return Shape{}, errors.NewValidationError("time_steps", "recurrent layer needs a sequence input", in.TimeSteps)
	}
	if l.Units <= 0 {
		return Shape{}, errors.NewValidationError("units", "must be > 0", l.Units)
	}

	l.kernel = newParam(l.Name()+"/kernel", in.Features, l.Units, GlorotUniform, rng)
	l.recurrent = newParam(l.Name()+"/recurrent_kernel", l.Units, l.Units, Orthogonal, rng)
	l.bias = newParam(l.Name()+"/bias", 1, l.Units, Zeros, rng)

	return Shape{Features: l.Units}, nil
}

func (l *SimpleRNN) Forward(x []*mat.Dense) ([]*mat.Dense, error) {
	if l.kernel == nil {
		return nil, errors.ErrNotBuilt
	}
	if len(x) == 0 {
		return nil, errors.ErrEmptyData
	}

	batch, _ := x[0].Dims()
	h := mat.NewDense(batch, l.Units, nil)
	l.inputs = x
	l.states = append(l.states[:0], h)

	for _, xt := range x {
		var z, hh mat.Dense
		z.Mul(xt, l.kernel.Value)
		hh.Mul(h, l.recurrent.Value)
		z.Add(&z, &hh)
		addRowVector(&z, l.bias.Value)
		z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, &z)
		h = &z
		l.states = append(l.states, h)
	}
	return []*mat.Dense{h}, nil
}

// Backward performs backpropagation through time from the gradient of the
// final hidden state.
func (l *SimpleRNN) Backward(grad []*mat.Dense) ([]*mat.Dense, error) {
	if len(l.states) == 0 {
		return nil, errors.NewValueError("SimpleRNN.Backward", "called before Forward")
	}
	if len(grad) != 1 {
		return nil, errors.NewDimensionError("SimpleRNN.Backward", 1, len(grad), 0)
	}

	steps := len(l.inputs)
	dx := make([]*mat.Dense, steps)
	dh := grad[0]

	for t := steps - 1; t >= 0; t-- {
		h, prev := l.states[t+1], l.states[t]

		// dz = dh ⊙ (1 - h²)
		var dz mat.Dense
		dz.Apply(func(i, j int, v float64) float64 {
			ht := h.At(i, j)
			return v * (1 - ht*ht)
		}, dh)

		var dw mat.Dense
		dw.Mul(l.inputs[t].T(), &dz)
		l.kernel.Grad.Add(l.kernel.Grad, &dw)

		var du mat.Dense
		du.Mul(prev.T(), &dz)
		l.recurrent.Grad.Add(l.recurrent.Grad, &du)

		accumulateColSums(l.bias.Grad, &dz)

		var dxt mat.Dense
		dxt.Mul(&dz, l.kernel.Value.T())
		dx[t] = &dxt

		var next mat.Dense
		next.Mul(&dz, l.recurrent.Value.T())
		dh = &next
	}
	return dx, nil
}

func (l *SimpleRNN) Params() []*Param {
	if l.kernel == nil {
		return nil
	}
	return []*Param{l.kernel, l.recurrent, l.bias}
}
