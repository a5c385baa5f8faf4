package nn

import (
	"context"
	"iter"
	"math/rand/v2"

	"github.com/YuminosukeSato/rnnbench/callbacks"
	"github.com/YuminosukeSato/rnnbench/core/model"
	"github.com/YuminosukeSato/rnnbench/dataset"
	"github.com/YuminosukeSato/rnnbench/metrics"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Dataset is anything that can produce a pass of batches. Each call to
// Batches starts a new pass.
type Dataset interface {
	Batches() iter.Seq2[*dataset.Batch, error]
}

// FitOptions controls a call to Fit.
type FitOptions struct {
	Epochs    int
	Callbacks []callbacks.Callback
}

// Evaluation is the result of one pass over held-out data. Loss and
// Accuracy are sample-weighted means over all batches.
type Evaluation struct {
	Loss     float64
	Accuracy float64
	Samples  int
}

// Sequential is a linear stack of layers trained end to end.
type Sequential struct {
	name   string
	input  Shape
	output Shape
	layers []Layer
	seed   uint64

	state     *model.StateManager
	optimizer Optimizer
	loss      Loss
	metrics   []metrics.Metric

	logger log.Logger
}

// NewSequential creates a model for per-sample inputs of the given shape.
// Parameter initialisation is seeded by seed.
func NewSequential(input Shape, seed uint64, layers ...Layer) *Sequential {
	const name = "Sequential"
	return &Sequential{
		name:   name,
		input:  input,
		layers: layers,
		seed:   seed,
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("nn").With(log.ModelNameKey, name),
	}
}

// Build allocates and initialises every layer's parameters. Compile calls
// it if needed.
func (s *Sequential) Build() error {
	if len(s.layers) == 0 {
		return errors.NewValueError("Sequential.Build", "model has no layers")
	}
	rng := rand.New(rand.NewPCG(s.seed, 0))
	shape := s.input
	for _, l := range s.layers {
		out, err := l.Build(shape, rng)
		if err != nil {
			return errors.NewModelError("Sequential.Build", "layer "+l.Name(), err)
		}
		shape = out
	}
	if shape.TimeSteps != 0 {
		return errors.NewValueError("Sequential.Build", "model output must not be a sequence")
	}
	s.output = shape
	s.state.SetBuilt(s.input.TimeSteps, s.input.Features)
	return nil
}

// Compile attaches the optimizer, loss and metrics.
func (s *Sequential) Compile(optimizer Optimizer, loss Loss, ms ...metrics.Metric) error {
	if optimizer == nil || loss == nil {
		return errors.NewValueError("Sequential.Compile", "optimizer and loss are required")
	}
	if !s.state.IsBuilt() {
		if err := s.Build(); err != nil {
			return err
		}
	}
	s.optimizer = optimizer
	s.loss = loss
	s.metrics = ms
	s.state.SetCompiled()

	s.logger.Info("Model compiled",
		"optimizer", optimizer.Name(),
		"loss", loss.Name(),
		"params", s.CountParams(),
		log.TimeStepsKey, s.input.TimeSteps,
		log.FeaturesKey, s.input.Features,
	)
	return nil
}

// Params returns all trainable parameters in layer order.
func (s *Sequential) Params() []*Param {
	var params []*Param
	for _, l := range s.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// CountParams returns the number of trainable scalars.
func (s *Sequential) CountParams() int {
	n := 0
	for _, p := range s.Params() {
		n += p.Size()
	}
	return n
}

// State returns the model's lifecycle state.
func (s *Sequential) State() model.State {
	return s.state.GetState()
}

// Predict returns class probabilities for a time-step major batch.
func (s *Sequential) Predict(steps []*mat.Dense) (*mat.Dense, error) {
	if !s.state.IsBuilt() {
		return nil, errors.ErrNotBuilt
	}
	var out *mat.Dense
	err := errors.SafeExecute("Sequential.Predict", func() error {
		var err error
		out, err = s.forward(steps)
		return err
	})
	return out, err
}

// Fit trains the model for opts.Epochs sequential epochs. Every batch
// runs forward, loss, backward and an optimizer step. Callbacks see
// OnEpochBegin and OnEpochEnd once per epoch, with 1-based epoch numbers.
func (s *Sequential) Fit(ctx context.Context, data Dataset, opts FitOptions) (*callbacks.History, error) {
	if err := s.state.RequireCompiled(s.name, "Fit"); err != nil {
		return nil, err
	}
	if opts.Epochs <= 0 {
		return nil, errors.NewValidationError("epochs", "must be > 0", opts.Epochs)
	}

	history := callbacks.NewHistory()
	cbs := make([]callbacks.Callback, 0, len(opts.Callbacks)+1)
	cbs = append(cbs, opts.Callbacks...)
	cbs = append(cbs, history)
	list := callbacks.NewList(cbs...)

	s.logger.Debug("Training started", log.OperationKey, log.OperationFit, log.EpochsKey, opts.Epochs)
	if err := list.OnTrainBegin(nil); err != nil {
		return history, err
	}

	var (
		logs    callbacks.Logs
		samples int
	)
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := list.OnEpochBegin(epoch, nil); err != nil {
			return history, errors.Wrapf(err, "epoch %d begin", epoch)
		}
		var err error
		logs, samples, err = s.runEpoch(ctx, data, true, list)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d", epoch)
		}
		if err := list.OnEpochEnd(epoch, logs); err != nil {
			return history, errors.Wrapf(err, "epoch %d end", epoch)
		}
	}

	if err := list.OnTrainEnd(logs); err != nil {
		return history, err
	}
	s.state.SetFitted(samples, opts.Epochs)
	return history, nil
}

// Evaluate makes one pass over data without updating parameters.
func (s *Sequential) Evaluate(ctx context.Context, data Dataset, cbs ...callbacks.Callback) (Evaluation, error) {
	if err := s.state.RequireCompiled(s.name, "Evaluate"); err != nil {
		return Evaluation{}, err
	}
	list := callbacks.NewList(cbs...)
	if err := list.OnTestBegin(nil); err != nil {
		return Evaluation{}, err
	}
	logs, samples, err := s.runEpoch(ctx, data, false, list)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "evaluate")
	}
	if err := list.OnTestEnd(logs); err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Loss:     logs[callbacks.LossKey],
		Accuracy: logs[callbacks.AccuracyKey],
		Samples:  samples,
	}, nil
}

// runEpoch makes one pass over data and returns the epoch logs and the
// number of samples seen.
func (s *Sequential) runEpoch(ctx context.Context, data Dataset, train bool, list callbacks.List) (callbacks.Logs, int, error) {
	meanLoss := metrics.NewMean(callbacks.LossKey)
	for _, m := range s.metrics {
		m.Reset()
	}

	samples, step := 0, 0
	for batch, err := range data.Batches() {
		if err != nil {
			return nil, samples, err
		}
		if err := ctx.Err(); err != nil {
			return nil, samples, errors.WithStack(err)
		}

		loss, probs, err := s.step(batch, step, train)
		if err != nil {
			return nil, samples, errors.Wrapf(err, "batch %d", step)
		}
		if err := errors.CheckScalar(callbacks.LossKey, loss, step); err != nil {
			return nil, samples, err
		}

		meanLoss.Add(loss, float64(batch.Size()))
		for _, m := range s.metrics {
			if err := m.Update(batch.Labels, probs); err != nil {
				return nil, samples, err
			}
		}
		samples += batch.Size()

		if train {
			if err := list.OnBatchEnd(step, callbacks.Logs{callbacks.LossKey: loss}); err != nil {
				return nil, samples, err
			}
		}
		step++
	}
	if samples == 0 {
		return nil, 0, errors.ErrEmptyData
	}

	logs := callbacks.Logs{callbacks.LossKey: meanLoss.Result()}
	for _, m := range s.metrics {
		logs[m.Name()] = m.Result()
	}
	return logs, samples, nil
}

// step runs one batch. gonum shape panics surface as errors, and no
// update is applied when a gradient holds NaN or Inf.
func (s *Sequential) step(batch *dataset.Batch, index int, train bool) (loss float64, probs *mat.Dense, err error) {
	err = errors.SafeExecute("Sequential.step", func() error {
		params := s.Params()
		if train {
			ZeroGrad(params)
		}

		out, err := s.forward(batch.Steps)
		if err != nil {
			return err
		}
		probs = out

		if loss, err = s.loss.Loss(batch.Labels, out); err != nil {
			return err
		}
		if !train {
			return nil
		}

		grad, err := s.loss.Gradient(batch.Labels, out)
		if err != nil {
			return err
		}
		if err := s.backward(grad); err != nil {
			return err
		}
		for _, p := range params {
			if err := errors.CheckMatrix("gradient "+p.Name, p.Grad, index); err != nil {
				return err
			}
		}
		return s.optimizer.Step(params)
	})
	return loss, probs, err
}

func (s *Sequential) forward(steps []*mat.Dense) (*mat.Dense, error) {
	if len(steps) != s.input.Steps() {
		return nil, errors.NewDimensionError("Sequential.forward", s.input.Steps(), len(steps), 1)
	}
	x := steps
	for _, l := range s.layers {
		out, err := l.Forward(x)
		if err != nil {
			return nil, errors.NewModelError("Sequential.forward", "layer "+l.Name(), err)
		}
		x = out
	}
	return x[0], nil
}

func (s *Sequential) backward(grad *mat.Dense) error {
	g := []*mat.Dense{grad}
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		next, err := l.Backward(g)
		if err != nil {
			return errors.NewModelError("Sequential.backward", "layer "+l.Name(), err)
		}
		g = next
	}
	return nil
}
