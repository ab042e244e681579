// Command api fetches the trained model from S3 and serves predictions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/houseprice/api"
	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/config"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fs := pflag.NewFlagSet("api", pflag.ExitOnError)
	cfg := config.BindServe(fs, os.Getenv)
	_ = fs.Parse(os.Args[1:])

	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Resolve(); err != nil {
		slog.Error("Invalid configuration", log.ErrAttr(err))
		os.Exit(1)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Prediction service failed", log.ErrAttr(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Serve) error {
	if !cfg.SkipDownload {
		store, err := artifact.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		if err := store.Download(ctx, cfg.Bucket, cfg.Key, cfg.ModelPath); err != nil {
			return err
		}
	}

	booster, err := api.LoadModel(cfg.ModelPath)
	if err != nil {
		return err
	}
	slog.Info("Model loaded",
		log.ComponentKey, "api",
		log.PathKey, cfg.ModelPath,
		"trees", booster.NumTrees(),
	)

	handle := api.NewModelHandle(booster)
	if cfg.Watch {
		go func() {
			if err := api.WatchModel(ctx, cfg.ModelPath, handle); err != nil {
				slog.Error("Model watcher stopped", log.ErrAttr(err))
			}
		}()
	}

	srv := api.NewServer(handle, api.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout))
	return srv.Run(ctx, cfg.Addr)
}
