// Package log defines the logging setup shared by the training and serving
// binaries and the standard attribute keys used in their records.
//
// Keys follow a hierarchical naming convention (e.g. "data.samples",
// "metrics.rmse") so that training runs and request logs can be filtered
// with the same queries.

package log

// Operation context
const (
	// ComponentKey identifies which package is logging.
	// Examples: "dataset", "trainer", "artifact", "api"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values: "download", "load", "split", "fit", "predict", "upload"
	OperationKey = "ml.operation"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// RequestIDKey carries the per-request identifier of the prediction API.
	RequestIDKey = "request.id"
)

// Data shape
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey report the two sides of a split.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// PathKey is a local filesystem path.
	PathKey = "data.path"

	// URLKey is a remote resource location.
	URLKey = "data.url"

	// BytesKey is a payload size in bytes.
	BytesKey = "data.size_bytes"
)

// Training and evaluation
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RoundKey records the boosting round.
	RoundKey = "training.round"

	// AttemptKey records the attempt number of a retried operation.
	AttemptKey = "retry.attempt"

	RMSEKey    = "metrics.rmse"
	MAEKey     = "metrics.mae"
	R2ScoreKey = "metrics.r2_score"

	// LearningRateKey records the shrinkage of the booster.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Object storage
const (
	BucketKey = "storage.bucket"
	KeyKey    = "storage.key"
)

// Standard values
const (
	OperationDownload = "download"
	OperationLoad     = "load"
	OperationSplit    = "split"
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationUpload   = "upload"

	PhaseTraining  = "training"
	PhaseInference = "inference"
)
