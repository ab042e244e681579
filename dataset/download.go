package dataset

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultDatasetURL is the public copy of the Boston housing data.
const DefaultDatasetURL = "https://raw.githubusercontent.com/selva86/datasets/master/BostonHousing.csv"

type downloadConfig struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// DownloadOption configures Download.
type DownloadOption func(*downloadConfig)

// WithHTTPClient replaces the default client, whose timeout is 30s.
func WithHTTPClient(c *http.Client) DownloadOption {
	return func(cfg *downloadConfig) { cfg.client = c }
}

// WithTimeout sets the per-attempt timeout of the default client.
func WithTimeout(d time.Duration) DownloadOption {
	return func(cfg *downloadConfig) { cfg.client = &http.Client{Timeout: d} }
}

// WithRetry sets how many attempts are made and the initial backoff, which
// doubles after each failed attempt. attempts < 1 is treated as 1.
func WithRetry(attempts int, backoff time.Duration) DownloadOption {
	return func(cfg *downloadConfig) {
		if attempts < 1 {
			attempts = 1
		}
		cfg.attempts = attempts
		cfg.backoff = backoff
	}
}

// Download fetches url and writes the body verbatim to dest, replacing any
// existing file. Transport errors and 5xx responses are retried; other
// non-2xx responses fail immediately.
func Download(ctx context.Context, url, dest string, opts ...DownloadOption) error {
	cfg := downloadConfig{
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := slog.With(log.ComponentKey, "dataset", log.OperationKey, log.OperationDownload, log.URLKey, url)
	logger.Info("Downloading dataset")

	var body []byte
	backoff := cfg.backoff
	for attempt := 1; ; attempt++ {
		var retryable bool
		var err error
		body, retryable, err = fetch(ctx, cfg.client, url)
		if err == nil {
			break
		}
		if !retryable || attempt >= cfg.attempts {
			return err
		}

		logger.Warn("Download attempt failed, retrying",
			log.AttemptKey, attempt,
			"backoff", backoff.String(),
			log.ErrAttr(err),
		)
		select {
		case <-ctx.Done():
			return errors.NewNetworkError("download", url, 0, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if err := writeFile(dest, body); err != nil {
		return err
	}

	logger.Info("Dataset downloaded", log.PathKey, dest, log.BytesKey, len(body))
	return nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.NewNetworkError("download", url, 0, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, errors.NewNetworkError("download", url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused by the next attempt
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode >= 500, errors.NewNetworkError("download", url, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.NewNetworkError("download", url, 0, err)
	}
	return body, false, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewFilesystemError("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFilesystemError("write", path, err)
	}
	return nil
}
