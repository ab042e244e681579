// Package trainer fits the house price regressor on a train/test split,
// reports held-out metrics and writes the model artifact.
package trainer

import (
	"context"
	"log/slog"
	"time"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/gbdt"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultModelPath is where the training binary writes the model.
const DefaultModelPath = "./output/models/model.bin"

// Config controls a training run.
type Config struct {
	// ModelPath is the artifact destination. Empty means DefaultModelPath.
	ModelPath string

	Params gbdt.Params

	// LogEvery logs evaluation results at info level every N rounds.
	// Zero disables progress logging.
	LogEvery int

	// MaxTrainTime stops boosting after the first round that ends past it.
	// The trees built so far are kept. Zero means no limit.
	MaxTrainTime time.Duration
}

// Result describes a finished training run.
type Result struct {
	ModelPath   string
	Booster     *gbdt.Booster
	TestMetrics metrics.Report
}

// TrainModel trains on (xTrain, yTrain), evaluates on (xTest, yTest) and
// saves the booster to cfg.ModelPath. The feature frames must hold the
// dataset.Schema columns in order; the target frames a single column.
//
// Cancelling ctx stops boosting after the current round.
func TrainModel(ctx context.Context, xTrain, yTrain, xTest, yTest *dataset.Frame, cfg Config) (*Result, error) {
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}
	logger := slog.With(log.ComponentKey, "trainer", log.PhaseKey, log.PhaseTraining)

	dtrain, err := toDMatrix(xTrain, yTrain)
	if err != nil {
		return nil, err
	}

	evals := []gbdt.EvalSet{{Name: "train", Data: dtrain}}
	var dtest *gbdt.DMatrix
	if xTest.NumRows() > 0 {
		dtest, err = toDMatrix(xTest, yTest)
		if err != nil {
			return nil, err
		}
		evals = append(evals, gbdt.EvalSet{Name: "test", Data: dtest})
	} else {
		logger.Warn("Test partition is empty, skipping evaluation")
	}

	opts := []gbdt.TrainOption{gbdt.WithCallback(func(*gbdt.CallbackEnv) error {
		return ctx.Err()
	})}
	if cfg.LogEvery > 0 {
		opts = append(opts, gbdt.WithCallback(gbdt.LogEvaluation(cfg.LogEvery)))
	}
	if cfg.MaxTrainTime > 0 {
		opts = append(opts, gbdt.WithCallback(gbdt.TimeLimit(cfg.MaxTrainTime)))
	}

	logger.Info("Training model",
		log.OperationKey, log.OperationFit,
		log.TrainSamplesKey, dtrain.NumRows(),
		log.FeaturesKey, dtrain.NumCols(),
		log.LearningRateKey, cfg.Params.LearningRate,
		log.RandomSeedKey, cfg.Params.Seed,
		"rounds", cfg.Params.NumRounds,
		"max_depth", cfg.Params.MaxDepth,
	)
	start := time.Now()
	booster, err := gbdt.Train(cfg.Params, dtrain, evals, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("Model trained",
		"trees", booster.NumTrees(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	result := &Result{ModelPath: cfg.ModelPath, Booster: booster}

	if dtest != nil {
		pred, err := booster.Predict(xTest.Dense())
		if err != nil {
			return nil, err
		}
		report, err := metrics.Evaluate(dtest.Labels(), pred)
		if err != nil {
			// a constant test target leaves R² undefined; the model is still usable
			logger.Warn("Could not compute test metrics", log.ErrAttr(err))
		} else {
			result.TestMetrics = report
			logger.Info("Test set evaluation",
				log.OperationKey, log.OperationPredict,
				log.TestSamplesKey, len(pred),
				log.RMSEKey, report.RMSE,
				log.MAEKey, report.MAE,
				log.R2ScoreKey, report.R2Score,
			)
		}
		logger.Debug("First predictions", "predictions", pred[:min(5, len(pred))])
	}

	if err := booster.Save(cfg.ModelPath); err != nil {
		return nil, err
	}
	logger.Info("Model saved", log.PathKey, cfg.ModelPath)

	return result, nil
}

func toDMatrix(x, y *dataset.Frame) (*gbdt.DMatrix, error) {
	if x.NumRows() != y.NumRows() {
		return nil, errors.NewDimensionError("TrainModel", x.NumRows(), y.NumRows(), 0)
	}
	if y.NumCols() != 1 {
		return nil, errors.NewDimensionError("TrainModel", 1, y.NumCols(), 1)
	}
	labels, err := y.Column(y.Columns()[0])
	if err != nil {
		return nil, err
	}
	d, err := gbdt.NewDMatrix(x.Dense(), labels)
	if err != nil {
		return nil, err
	}
	if err := d.SetFeatureNames(x.Columns()); err != nil {
		return nil, err
	}
	return d, nil
}
