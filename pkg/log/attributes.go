package log

// Model and operation context.
const (
	// ModelNameKey identifies the model, e.g. "Sequential".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed: "fit", "evaluate".
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase: "training", "testing".
	PhaseKey = "ml.phase"

	// LayerKey names a layer inside a model.
	LayerKey = "model.layer"
)

// Data shape.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	TimeStepsKey = "data.time_steps"
	BatchSizeKey = "data.batch_size"
	BatchesKey   = "data.batches"
	SplitKey     = "data.split"
	PathKey      = "data.path"
)

// Performance metrics.
const (
	DurationSecondsKey = "perf.duration_seconds"
	MemoryUsageKey     = "perf.memory_bytes"
	MemoryDeltaKey     = "perf.memory_delta_bytes"
	HeapInUseKey       = "perf.heap_inuse_bytes"
	AccuracyKey        = "metrics.accuracy"
	LossKey            = "metrics.loss"
	EpochKey           = "training.epoch"
	IterationKey       = "training.iteration"
)

// Hyperparameters.
const (
	LearningRateKey = "hyperparams.learning_rate"
	EpochsKey       = "hyperparams.epochs"
	UnitsKey        = "hyperparams.units"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationEvaluate = "evaluate"
	OperationRender   = "render"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"
)
