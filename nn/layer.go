// Package nn implements the small set of neural network building blocks
// needed to train a recurrent classifier on gonum matrices: a simple RNN
// cell unrolled over time, a dense layer, softmax, sparse categorical
// cross-entropy and plain SGD, composed by Sequential.
//
// Activations flow between layers as []*mat.Dense. A sequence of T time
// steps is a slice of T batch×features matrices; a non-sequential
// activation is a slice of length one.
package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Shape describes the per-sample input or output of a layer.
// TimeSteps is zero for non-sequential activations.
type Shape struct {
	TimeSteps int
	Features  int
}

// Steps returns the number of matrices an activation of this shape holds.
func (s Shape) Steps() int {
	if s.TimeSteps == 0 {
		return 1
	}
	return s.TimeSteps
}

// Param is a trainable tensor with its accumulated gradient.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

func newParam(name string, rows, cols int, init Initializer, rng *rand.Rand) *Param {
	p := &Param{
		Name:  name,
		Value: mat.NewDense(rows, cols, nil),
		Grad:  mat.NewDense(rows, cols, nil),
	}
	init(p.Value, rng)
	return p
}

// Size returns the number of scalars in the parameter.
func (p *Param) Size() int {
	r, c := p.Value.Dims()
	return r * c
}

// Layer is one stage of a Sequential model.
//
// Forward caches whatever Backward needs, so Backward must follow the
// Forward call it differentiates. Backward accumulates into the Grad of
// each Param and returns the gradient with respect to the layer input.
type Layer interface {
	Name() string
	Build(in Shape, rng *rand.Rand) (Shape, error)
	Forward(x []*mat.Dense) ([]*mat.Dense, error)
	Backward(grad []*mat.Dense) ([]*mat.Dense, error)
	Params() []*Param
}

// addRowVector adds the 1×n bias b to every row of m.
func addRowVector(m *mat.Dense, b *mat.Dense) {
	rows, _ := m.Dims()
	bias := b.RawRowView(0)
	for i := 0; i < rows; i++ {
		floats.Add(m.RawRowView(i), bias)
	}
}

// accumulateColSums adds the column sums of g to the 1×n gradient dst.
func accumulateColSums(dst *mat.Dense, g *mat.Dense) {
	rows, _ := g.Dims()
	out := dst.RawRowView(0)
	for i := 0; i < rows; i++ {
		floats.Add(out, g.RawRowView(i))
	}
}
