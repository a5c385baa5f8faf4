package nn

import (
	"context"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/rnnbench/callbacks"
	"github.com/YuminosukeSato/rnnbench/dataset"
	"github.com/YuminosukeSato/rnnbench/metrics"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

type sliceDataset struct {
	batches []*dataset.Batch
	passes  int
}

func (d *sliceDataset) Batches() iter.Seq2[*dataset.Batch, error] {
	d.passes++
	return func(yield func(*dataset.Batch, error) bool) {
		for _, b := range d.batches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// syntheticBatches builds batches whose class is marked by a raised
// feature at every time step, so a small RNN can learn it.
func syntheticBatches(n, size, timeSteps, features, classes int, seed uint64) []*dataset.Batch {
	rng := rand.New(rand.NewPCG(seed, 1))
	batches := make([]*dataset.Batch, n)
	for b := range batches {
		labels := make([]int, size)
		steps := make([]*mat.Dense, timeSteps)
		for t := range steps {
			steps[t] = mat.NewDense(size, features, nil)
		}
		for i := range labels {
			label := rng.IntN(classes)
			labels[i] = label
			for t := range steps {
				for j := 0; j < features; j++ {
					v := 0.1 * rng.NormFloat64()
					if j == label%features {
						v += 1
					}
					steps[t].Set(i, j, v)
				}
			}
		}
		batches[b] = &dataset.Batch{Steps: steps, Labels: labels}
	}
	return batches
}

func newTestModel(t *testing.T, timeSteps, features, units, classes int, lr float64) *Sequential {
	t.Helper()
	m := NewSequential(Shape{TimeSteps: timeSteps, Features: features}, 42,
		NewSimpleRNN(units),
		NewDense(classes),
		NewSoftmax(),
	)
	sgd, err := NewSGD(lr)
	require.NoError(t, err)
	require.NoError(t, m.Compile(sgd, NewSparseCategoricalCrossentropy(), metrics.NewSparseCategoricalAccuracy()))
	return m
}

type eventRecorder struct {
	callbacks.Base
	events  []string
	batches int
}

func (r *eventRecorder) OnEpochBegin(epoch int, _ callbacks.Logs) error {
	r.events = append(r.events, fmt.Sprintf("begin:%d", epoch))
	return nil
}

func (r *eventRecorder) OnBatchEnd(int, callbacks.Logs) error {
	r.batches++
	return nil
}

func (r *eventRecorder) OnEpochEnd(epoch int, _ callbacks.Logs) error {
	r.events = append(r.events, fmt.Sprintf("end:%d", epoch))
	return nil
}

func (r *eventRecorder) OnTestBegin(callbacks.Logs) error {
	r.events = append(r.events, "evaluate")
	return nil
}

func TestFitObserverOrderAndEvaluationOnce(t *testing.T) {
	// 60,000 samples in batches of 100
	train := &sliceDataset{batches: syntheticBatches(600, 100, 4, 2, 10, 1)}
	test := &sliceDataset{batches: syntheticBatches(10, 100, 4, 2, 10, 2)}
	m := newTestModel(t, 4, 2, 3, 10, 0.015)
	rec := &eventRecorder{}

	history, err := m.Fit(context.Background(), train, FitOptions{Epochs: 5, Callbacks: []callbacks.Callback{rec}})
	require.NoError(t, err)
	eval, err := m.Evaluate(context.Background(), test, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"begin:1", "end:1",
		"begin:2", "end:2",
		"begin:3", "end:3",
		"begin:4", "end:4",
		"begin:5", "end:5",
		"evaluate",
	}, rec.events)
	assert.Equal(t, 5*600, rec.batches)
	assert.Equal(t, 5, train.passes)
	assert.Equal(t, 1, test.passes)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, history.Epochs)
	assert.Len(t, history.Metrics[callbacks.LossKey], 5)
	assert.Len(t, history.Metrics[callbacks.AccuracyKey], 5)
	assert.Equal(t, 1000, eval.Samples)
	assert.False(t, math.IsNaN(eval.Loss))

	state := m.State()
	assert.True(t, state.Fitted)
	assert.Equal(t, 60000, state.Samples)
	assert.Equal(t, 5, state.Epochs)
}

func TestFitReducesLoss(t *testing.T) {
	train := &sliceDataset{batches: syntheticBatches(20, 32, 3, 4, 4, 3)}
	m := newTestModel(t, 3, 4, 8, 4, 0.2)

	history, err := m.Fit(context.Background(), train, FitOptions{Epochs: 15})
	require.NoError(t, err)

	losses := history.Metrics[callbacks.LossKey]
	assert.Less(t, losses[len(losses)-1], losses[0])
	acc, ok := history.Last(callbacks.AccuracyKey)
	require.True(t, ok)
	assert.Greater(t, acc, 0.5)

	eval, err := m.Evaluate(context.Background(), train)
	require.NoError(t, err)
	assert.Greater(t, eval.Accuracy, 0.5)
	assert.GreaterOrEqual(t, eval.Accuracy, 0.0)
	assert.LessOrEqual(t, eval.Accuracy, 1.0)
}

func TestEvaluateDoesNotUpdateParameters(t *testing.T) {
	data := &sliceDataset{batches: syntheticBatches(3, 8, 2, 3, 3, 4)}
	m := newTestModel(t, 2, 3, 4, 3, 0.1)

	before := snapshot(m.Params())
	_, err := m.Evaluate(context.Background(), data)
	require.NoError(t, err)
	for i, p := range m.Params() {
		assert.True(t, mat.Equal(before[i], p.Value), p.Name)
	}
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	m := newTestModel(t, 3, 2, 3, 3, 0.1)
	batch := syntheticBatches(1, 4, 3, 2, 3, 5)[0]
	loss := NewSparseCategoricalCrossentropy()

	lossAt := func() float64 {
		out, err := m.forward(batch.Steps)
		require.NoError(t, err)
		l, err := loss.Loss(batch.Labels, out)
		require.NoError(t, err)
		return l
	}

	ZeroGrad(m.Params())
	out, err := m.forward(batch.Steps)
	require.NoError(t, err)
	grad, err := loss.Gradient(batch.Labels, out)
	require.NoError(t, err)
	require.NoError(t, m.backward(grad))

	const h = 1e-6
	for _, p := range m.Params() {
		rows, cols := p.Value.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				orig := p.Value.At(i, j)
				p.Value.Set(i, j, orig+h)
				plus := lossAt()
				p.Value.Set(i, j, orig-h)
				minus := lossAt()
				p.Value.Set(i, j, orig)

				numeric := (plus - minus) / (2 * h)
				assert.InDelta(t, numeric, p.Grad.At(i, j), 1e-6, "%s[%d,%d]", p.Name, i, j)
			}
		}
	}
}

func TestNotCompiled(t *testing.T) {
	m := NewSequential(Shape{TimeSteps: 2, Features: 2}, 1, NewSimpleRNN(2), NewDense(2), NewSoftmax())
	data := &sliceDataset{batches: syntheticBatches(1, 2, 2, 2, 2, 6)}

	_, err := m.Fit(context.Background(), data, FitOptions{Epochs: 1})
	var notCompiled *errors.NotCompiledError
	require.True(t, errors.As(err, &notCompiled))
	assert.Equal(t, "Fit", notCompiled.Method)

	_, err = m.Evaluate(context.Background(), data)
	require.True(t, errors.As(err, &notCompiled))
	assert.Equal(t, "Evaluate", notCompiled.Method)
	assert.Equal(t, 0, data.passes)
}

func TestFitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newTestModel(t, 2, 2, 2, 2, 0.1)

	_, err := m.Fit(ctx, &sliceDataset{batches: syntheticBatches(2, 2, 2, 2, 2, 7)}, FitOptions{Epochs: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, fmt.Sprintf("%+v", err), "runEpoch")
}

func TestFitSurfacesShapePanics(t *testing.T) {
	m := newTestModel(t, 2, 3, 2, 2, 0.1)
	// three features expected, two provided
	data := &sliceDataset{batches: syntheticBatches(1, 2, 2, 2, 2, 8)}

	_, err := m.Fit(context.Background(), data, FitOptions{Epochs: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, mat.ErrShape)
	var panicErr *errors.PanicError
	assert.True(t, errors.As(err, &panicErr))
}

func TestFitDetectsNaNLoss(t *testing.T) {
	m := newTestModel(t, 2, 2, 2, 2, 0.1)
	batch := syntheticBatches(1, 2, 2, 2, 2, 9)[0]
	batch.Steps[0].Set(0, 0, math.NaN())

	_, err := m.Fit(context.Background(), &sliceDataset{batches: []*dataset.Batch{batch}}, FitOptions{Epochs: 1})
	var instability *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &instability))
}

// nanGrad passes activations through unchanged and reports a NaN
// gradient for its own parameter.
type nanGrad struct {
	scale *Param
}

func (l *nanGrad) Name() string { return "nan_grad" }

func (l *nanGrad) Build(in Shape, rng *rand.Rand) (Shape, error) {
	l.scale = newParam(l.Name()+"/scale", 1, 1, Zeros, rng)
	return in, nil
}

func (l *nanGrad) Forward(x []*mat.Dense) ([]*mat.Dense, error) { return x, nil }

func (l *nanGrad) Backward(grad []*mat.Dense) ([]*mat.Dense, error) {
	l.scale.Grad.Set(0, 0, math.NaN())
	return grad, nil
}

func (l *nanGrad) Params() []*Param { return []*Param{l.scale} }

func TestFitRejectsNaNGradientsBeforeUpdate(t *testing.T) {
	m := NewSequential(Shape{TimeSteps: 2, Features: 2}, 42,
		NewSimpleRNN(2),
		NewDense(2),
		&nanGrad{},
		NewSoftmax(),
	)
	sgd, err := NewSGD(0.1)
	require.NoError(t, err)
	require.NoError(t, m.Compile(sgd, NewSparseCategoricalCrossentropy()))

	before := snapshot(m.Params())
	data := &sliceDataset{batches: syntheticBatches(1, 4, 2, 2, 2, 12)}
	_, err = m.Fit(context.Background(), data, FitOptions{Epochs: 1})

	var instability *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &instability), "got %v", err)
	assert.Equal(t, 0, instability.Iteration)
	assert.Contains(t, instability.Operation, "nan_grad/scale")
	for i, p := range m.Params() {
		assert.True(t, mat.Equal(before[i], p.Value), "%s updated", p.Name)
	}
	assert.False(t, m.State().Fitted)
}

type failingCallback struct {
	callbacks.Base
	failAt int
}

func (f *failingCallback) OnEpochEnd(epoch int, _ callbacks.Logs) error {
	if epoch == f.failAt {
		return errors.New("memory probe failed")
	}
	return nil
}

func TestFitStopsOnCallbackError(t *testing.T) {
	m := newTestModel(t, 2, 2, 2, 2, 0.1)
	data := &sliceDataset{batches: syntheticBatches(2, 2, 2, 2, 2, 10)}

	history, err := m.Fit(context.Background(), data, FitOptions{
		Epochs:    5,
		Callbacks: []callbacks.Callback{&failingCallback{failAt: 2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory probe failed")
	assert.Equal(t, 2, data.passes)
	assert.Equal(t, []int{1}, history.Epochs)
	assert.False(t, m.State().Fitted)
}

func TestFitRejectsEmptyData(t *testing.T) {
	m := newTestModel(t, 2, 2, 2, 2, 0.1)
	_, err := m.Fit(context.Background(), &sliceDataset{}, FitOptions{Epochs: 1})
	assert.ErrorIs(t, err, errors.ErrEmptyData)

	_, err = m.Fit(context.Background(), &sliceDataset{}, FitOptions{Epochs: 0})
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestCountParams(t *testing.T) {
	m := newTestModel(t, 4, 196, 196, 10, 0.015)
	// rnn: 196*196 + 196*196 + 196; dense: 196*10 + 10
	assert.Equal(t, 196*196*2+196+196*10+10, m.CountParams())

	pred, err := m.Predict([]*mat.Dense{
		mat.NewDense(1, 196, nil), mat.NewDense(1, 196, nil),
		mat.NewDense(1, 196, nil), mat.NewDense(1, 196, nil),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mat.Sum(pred), 1e-9)
}

func snapshot(params []*Param) []*mat.Dense {
	out := make([]*mat.Dense, len(params))
	for i, p := range params {
		out[i] = mat.DenseCopyOf(p.Value)
	}
	return out
}
