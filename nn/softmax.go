package nn

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/rnnbench/core/parallel"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// parallelRows is the row count above which rows are normalised
// concurrently.
const parallelRows = 1024

// Softmax normalises each row into a probability distribution.
type Softmax struct {
	outputs []*mat.Dense
}

// NewSoftmax creates a softmax activation layer.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

func (l *Softmax) Name() string { return "softmax" }

func (l *Softmax) Build(in Shape, _ *rand.Rand) (Shape, error) {
	return in, nil
}

func (l *Softmax) Forward(x []*mat.Dense) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, len(x))
	for t, xt := range x {
		y := mat.DenseCopyOf(xt)
		rows, _ := y.Dims()
		parallel.ParallelizeWithThreshold(rows, parallelRows, func(start, end int) {
			for i := start; i < end; i++ {
				softmaxInPlace(y.RawRowView(i))
			}
		})
		out[t] = y
	}
	l.outputs = out
	return out, nil
}

// Backward computes y ⊙ (g − Σ g⊙y) row by row.
func (l *Softmax) Backward(grad []*mat.Dense) ([]*mat.Dense, error) {
	if len(grad) != len(l.outputs) {
		return nil, errors.NewDimensionError("Softmax.Backward", len(l.outputs), len(grad), 0)
	}
	dx := make([]*mat.Dense, len(grad))
	for t, g := range grad {
		y := l.outputs[t]
		rows, cols := y.Dims()
		d := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			yi, gi := y.RawRowView(i), g.RawRowView(i)
			dot := floats.Dot(gi, yi)
			di := d.RawRowView(i)
			for j := range di {
				di[j] = yi[j] * (gi[j] - dot)
			}
		}
		dx[t] = d
	}
	return dx, nil
}

func (l *Softmax) Params() []*Param { return nil }

func softmaxInPlace(row []float64) {
	m := floats.Max(row)
	for j, v := range row {
		row[j] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(row), row)
}
