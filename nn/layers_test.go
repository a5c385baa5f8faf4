package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestGlorotUniformBounds(t *testing.T) {
	m := mat.NewDense(196, 196, nil)
	GlorotUniform(m, newTestRNG())

	limit := math.Sqrt(6.0 / (196 + 196))
	assert.LessOrEqual(t, mat.Max(m), limit)
	assert.GreaterOrEqual(t, mat.Min(m), -limit)
	assert.NotEqual(t, 0.0, mat.Sum(m))
}

func TestOrthogonal(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"Square", 8, 8},
		{"Tall", 10, 4},
		{"Wide", 4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mat.NewDense(tt.rows, tt.cols, nil)
			Orthogonal(m, newTestRNG())

			var gram mat.Dense
			k := min(tt.rows, tt.cols)
			if tt.rows >= tt.cols {
				gram.Mul(m.T(), m)
			} else {
				gram.Mul(m, m.T())
			}
			assert.True(t, mat.EqualApprox(&gram, eye(k), 1e-10), "gram:\n%v", mat.Formatted(&gram))
		})
	}
}

func TestSoftmaxRowsAreDistributions(t *testing.T) {
	x := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		-1000, 0, 1000, 0,
		0, 0, 0, 0,
	})
	out, err := NewSoftmax().Forward([]*mat.Dense{x})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		row := out[0].RawRowView(i)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-12)
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
	assert.InDelta(t, 0.25, out[0].At(2, 0), 1e-12)
	// input must not be modified
	assert.Equal(t, 4.0, x.At(0, 3))
}

func TestSparseCategoricalCrossentropy(t *testing.T) {
	loss := NewSparseCategoricalCrossentropy()
	pred := mat.NewDense(2, 3, []float64{
		0.7, 0.2, 0.1,
		0.0, 1.0, 0.0,
	})

	got, err := loss.Loss([]int{0, 0}, pred)
	require.NoError(t, err)
	want := (-math.Log(0.7) - math.Log(Epsilon)) / 2
	assert.InDelta(t, want, got, 1e-9)

	grad, err := loss.Gradient([]int{0, 0}, pred)
	require.NoError(t, err)
	assert.InDelta(t, -1/(0.7*2), grad.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, grad.At(1, 0), "clipped probabilities have no gradient")
	assert.Equal(t, 0.0, grad.At(0, 1))
}

func TestSparseCategoricalCrossentropyErrors(t *testing.T) {
	loss := NewSparseCategoricalCrossentropy()
	pred := mat.NewDense(1, 3, []float64{0.2, 0.3, 0.5})

	_, err := loss.Loss([]int{3}, pred)
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	_, err = loss.Loss([]int{0, 1}, pred)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = loss.Gradient(nil, pred)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestSGDStep(t *testing.T) {
	p := newParam("w", 1, 2, Zeros, nil)
	p.Value.SetRow(0, []float64{1, 2})
	p.Grad.SetRow(0, []float64{10, -10})

	sgd, err := NewSGD(0.015)
	require.NoError(t, err)
	require.NoError(t, sgd.Step([]*Param{p}))
	assert.InDeltaSlice(t, []float64{0.85, 2.15}, p.Value.RawRowView(0), 1e-12)

	ZeroGrad([]*Param{p})
	assert.Equal(t, 0.0, mat.Sum(p.Grad))

	_, err = NewSGD(0)
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestSimpleRNNShapes(t *testing.T) {
	rnn := NewSimpleRNN(5)
	out, err := rnn.Build(Shape{TimeSteps: 4, Features: 3}, newTestRNG())
	require.NoError(t, err)
	assert.Equal(t, Shape{Features: 5}, out)
	assert.Len(t, rnn.Params(), 3)

	steps := make([]*mat.Dense, 4)
	for i := range steps {
		steps[i] = mat.NewDense(2, 3, []float64{1, 0, -1, 0.5, 0.5, 0.5})
	}
	h, err := rnn.Forward(steps)
	require.NoError(t, err)
	require.Len(t, h, 1)
	r, c := h[0].Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 5, c)
	assert.LessOrEqual(t, mat.Max(h[0]), 1.0)
	assert.GreaterOrEqual(t, mat.Min(h[0]), -1.0)

	dx, err := rnn.Backward([]*mat.Dense{mat.NewDense(2, 5, nil)})
	require.NoError(t, err)
	assert.Len(t, dx, 4)
}

func TestSimpleRNNRequiresSequence(t *testing.T) {
	_, err := NewSimpleRNN(5).Build(Shape{Features: 3}, newTestRNG())
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	_, err = NewSimpleRNN(5).Forward(nil)
	assert.ErrorIs(t, err, errors.ErrNotBuilt)
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestSoftmaxLargeBatch(t *testing.T) {
	rows := parallelRows * 3
	x := mat.NewDense(rows, 10, nil)
	rng := newTestRNG()
	for i := 0; i < rows; i++ {
		for j := 0; j < 10; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}
	out, err := NewSoftmax().Forward([]*mat.Dense{x})
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		require.InDelta(t, 1.0, floats.Sum(out[0].RawRowView(i)), 1e-12)
	}
}
