// Command train downloads the Boston housing dataset, trains the price
// regressor and pushes the model to S3.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/config"
	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/trainer"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fs := pflag.NewFlagSet("train", pflag.ExitOnError)
	cfg := config.BindTrain(fs, os.Getenv)
	_ = fs.Parse(os.Args[1:])

	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Resolve(); err != nil {
		slog.Error("Invalid configuration", log.ErrAttr(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Training pipeline failed", log.ErrAttr(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Train) error {
	if err := dataset.Download(ctx, cfg.DatasetURL, cfg.DatasetFile); err != nil {
		return err
	}

	frame, err := dataset.LoadCSV(cfg.DatasetFile)
	if err != nil {
		return err
	}

	train, test, err := dataset.SplitTrainTest(frame, cfg.TestFraction, dataset.WithSeed(cfg.Seed))
	if err != nil {
		return err
	}
	xTrain, yTrain, err := dataset.SplitFeaturesTarget(train)
	if err != nil {
		return err
	}
	xTest, yTest, err := dataset.SplitFeaturesTarget(test)
	if err != nil {
		return err
	}

	result, err := trainer.TrainModel(ctx, xTrain, yTrain, xTest, yTest, trainer.Config{
		ModelPath:    cfg.ModelPath,
		Params:       cfg.Params,
		LogEvery:     25,
		MaxTrainTime: cfg.MaxTrainTime,
	})
	if err != nil {
		return err
	}

	if cfg.PlotPath != "" && xTest.NumRows() > 0 {
		pred, err := result.Booster.Predict(xTest.Dense())
		if err != nil {
			return err
		}
		labels, err := yTest.Column(dataset.Target)
		if err != nil {
			return err
		}
		if err := trainer.PlotPredictions(labels, pred, cfg.PlotPath); err != nil {
			slog.Warn("Could not write prediction plot", log.PathKey, cfg.PlotPath, log.ErrAttr(err))
		}
	}

	if cfg.SkipUpload {
		slog.Info("Upload skipped", log.PathKey, result.ModelPath)
		return nil
	}

	store, err := artifact.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Upload(ctx, result.ModelPath, cfg.Bucket, cfg.Key); err != nil {
		return err
	}
	slog.Info("Model pushed to S3 bucket", log.BucketKey, cfg.Bucket, log.KeyKey, cfg.Key)
	return nil
}
