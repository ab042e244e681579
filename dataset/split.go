package dataset

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

type splitConfig struct {
	seed    uint64
	useSeed bool
}

// SplitOption configures SplitTrainTest.
type SplitOption func(*splitConfig)

// WithSeed makes the permutation reproducible.
func WithSeed(seed int64) SplitOption {
	return func(cfg *splitConfig) {
		cfg.seed = uint64(seed)
		cfg.useSeed = true
	}
}

// SplitTrainTest shuffles the row indices of frame and assigns the first
// floor(testFraction*N) of them to the test set and the rest to the train
// set. testFraction must lie strictly between 0 and 1.
func SplitTrainTest(frame *Frame, testFraction float64, opts ...SplitOption) (train, test *Frame, err error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, errors.NewInvalidArgumentError("test_fraction", "must be between 0 and 1 (exclusive)", testFraction)
	}

	var cfg splitConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	seed := cfg.seed
	if !cfg.useSeed {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := frame.NumRows()
	indices := rng.Perm(n)
	testSize := int(testFraction * float64(n))

	test = frame.Take(indices[:testSize])
	train = frame.Take(indices[testSize:])

	slog.Info("Split dataset",
		log.ComponentKey, "dataset",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, train.NumRows(),
		log.TestSamplesKey, test.NumRows(),
	)
	return train, test, nil
}

// SplitFeaturesTarget projects the Schema columns, in Schema order, and the
// Target column into two frames.
func SplitFeaturesTarget(frame *Frame) (features, target *Frame, err error) {
	features, err = frame.Select(Schema...)
	if err != nil {
		return nil, nil, err
	}
	target, err = frame.Select(Target)
	if err != nil {
		return nil, nil, err
	}
	return features, target, nil
}
