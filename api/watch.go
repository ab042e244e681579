package api

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// reloadDebounce coalesces the burst of events a single file write produces.
const reloadDebounce = 100 * time.Millisecond

// WatchModel reloads the booster at path whenever the file is written or
// replaced and stores it in handle. A file that fails to load, or whose
// features do not follow dataset.Schema, is logged and the previous model
// stays in service. It blocks until ctx is done.
//
// The parent directory is watched so that atomic replacement by rename is
// seen as well.
func WatchModel(ctx context.Context, path string, handle *ModelHandle) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create model watcher")
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return errors.NewFilesystemError("watch", dir, err)
	}
	target := filepath.Clean(path)

	logger := slog.With(log.ComponentKey, "api", log.OperationKey, log.OperationLoad, log.PathKey, path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Model watcher error", log.ErrAttr(err))
		case <-fire:
			fire = nil
			booster, err := LoadModel(path)
			if err != nil {
				logger.Error("Model reload failed, keeping previous model", log.ErrAttr(err))
				continue
			}
			handle.Store(booster)
			logger.Info("Model reloaded", "trees", booster.NumTrees())
		}
	}
}
