// Package trainer wires the dataset, model and observers into a single
// benchmark run: load MNIST, train for the configured epochs while
// printing per-epoch time and memory, then evaluate once on the test split.
package trainer

import (
	"context"
	"io"
	"os"

	"github.com/YuminosukeSato/rnnbench/callbacks"
	"github.com/YuminosukeSato/rnnbench/config"
	"github.com/YuminosukeSato/rnnbench/dataset"
	"github.com/YuminosukeSato/rnnbench/metrics"
	"github.com/YuminosukeSato/rnnbench/nn"
	"github.com/YuminosukeSato/rnnbench/performance"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
	"github.com/YuminosukeSato/rnnbench/preprocessing"
)

// LoadFunc reads the train and test splits from a directory.
type LoadFunc func(dir string) (train, test *dataset.Split, err error)

// Deps are the collaborators of Run. Zero fields get production defaults.
type Deps struct {
	Load   LoadFunc
	Probe  performance.MemoryProbe
	Stdout io.Writer
	Logger log.Logger

	// Callbacks observe both training and evaluation, after the built-in
	// performance and progress loggers.
	Callbacks []callbacks.Callback
}

// Result is everything a run produced.
type Result struct {
	History    *callbacks.History
	Evaluation nn.Evaluation
	Profile    performance.Report
}

func (d *Deps) withDefaults() error {
	if d.Load == nil {
		d.Load = dataset.LoadMNIST
	}
	if d.Probe == nil {
		probe, err := performance.NewProcessMemory()
		if err != nil {
			return err
		}
		d.Probe = probe
	}
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = log.GetLoggerWithName("trainer")
	}
	return nil
}

// BuildModel returns the compiled benchmark model: a SimpleRNN over
// TimeSteps steps of Features values, a Dense classifier and Softmax,
// trained by SGD on sparse categorical cross-entropy.
func BuildModel(s *config.Settings) (*nn.Sequential, error) {
	model := nn.NewSequential(
		nn.Shape{TimeSteps: s.TimeSteps, Features: s.Features},
		uint64(s.Seed),
		nn.NewSimpleRNN(s.Units),
		nn.NewDense(s.Classes),
		nn.NewSoftmax(),
	)
	sgd, err := nn.NewSGD(s.LearningRate)
	if err != nil {
		return nil, err
	}
	if err := model.Compile(sgd, nn.NewSparseCategoricalCrossentropy(), metrics.NewSparseCategoricalAccuracy()); err != nil {
		return nil, err
	}
	return model, nil
}

// Run executes the benchmark. Any failure, including a failing memory
// probe inside an epoch, ends the run with an error.
func Run(ctx context.Context, s *config.Settings, deps Deps) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := deps.withDefaults(); err != nil {
		return nil, errors.Wrap(err, "init memory probe")
	}
	logger := deps.Logger

	train, test, err := deps.Load(s.DataDir)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset from %s", s.DataDir)
	}
	for _, split := range []*dataset.Split{train, test} {
		if got := split.Rows * split.Cols; got != s.InputSize() {
			return nil, errors.NewDimensionError("trainer.Run", s.InputSize(), got, 1)
		}
	}

	transform := preprocessing.NewImageTransformer(s.TimeSteps, s.Features)
	trainData := dataset.NewPipeline(train, transform).
		Shuffle(train.Len(), s.Seed).
		Batch(s.BatchSize)
	testData := dataset.NewPipeline(test, transform).
		Batch(s.BatchSize)

	logger.Info("Pipelines ready",
		log.PhaseKey, log.PhasePreprocessing,
		log.BatchSizeKey, s.BatchSize,
		log.BatchesKey, trainData.NumBatches(),
		log.TimeStepsKey, s.TimeSteps,
		log.FeaturesKey, s.Features,
	)

	model, err := BuildModel(s)
	if err != nil {
		return nil, err
	}

	perf := callbacks.NewPerformanceLogger(deps.Stdout, deps.Probe)
	progress := callbacks.NewProgressLogger(logger, s.Epochs)
	observers := append([]callbacks.Callback{perf, progress}, deps.Callbacks...)

	result := &Result{}
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.EpochsKey, s.Epochs,
		log.LearningRateKey, s.LearningRate,
		log.UnitsKey, s.Units,
		log.RandomSeedKey, s.Seed,
	)
	result.Profile, err = performance.Profile(log.OperationFit, deps.Probe, logger, func() error {
		var fitErr error
		result.History, fitErr = model.Fit(ctx, trainData, nn.FitOptions{
			Epochs:    s.Epochs,
			Callbacks: observers,
		})
		return fitErr
	})
	if err != nil {
		return result, errors.Wrap(err, "train")
	}

	evalObservers := append([]callbacks.Callback{progress}, deps.Callbacks...)
	result.Evaluation, err = model.Evaluate(ctx, testData, evalObservers...)
	if err != nil {
		return result, err
	}
	logger.Info("Run finished",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, result.Evaluation.Samples,
		log.LossKey, result.Evaluation.Loss,
		log.AccuracyKey, result.Evaluation.Accuracy,
	)
	return result, nil
}
