package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hperrors "github.com/YuminosukeSato/houseprice/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_CloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("dataset loaded", SamplesKey, 506, FeaturesKey, 14)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["severity"])
	assert.Equal(t, "dataset loaded", entries[0]["message"])
	assert.Equal(t, float64(506), entries[0][SamplesKey])
	assert.Contains(t, entries[0], "logging.googleapis.com/sourceLocation")
}

func TestErrFmtHandler_AddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug)

	logger.Error("upload failed", ErrAttr(errors.New("access denied")))
	logger.Error("plain failure", ErrAttr(fmt.Errorf("no stack")))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.NotEmpty(t, entries[0][StacktraceAttrKey])
	assert.NotContains(t, entries[1], StacktraceAttrKey)
}

func TestSetupLoggerTo_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, SetupLoggerTo(&bytes.Buffer{}, "loud"))
}

func TestLogAccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAccessLogger(&buf)

	LogAccess(logger, AccessEvent{
		RequestID: "req-1",
		Method:    http.MethodPost,
		Path:      "/predict",
		Status:    http.StatusOK,
		Latency:   1500 * time.Microsecond,
		ClientIP:  "127.0.0.1",
	})
	LogAccess(logger, AccessEvent{
		RequestID: "req-2",
		Method:    http.MethodPost,
		Path:      "/predict",
		Status:    http.StatusBadRequest,
		Err:       hperrors.NewValidationError("rm", "field is required", nil),
	})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "req-1", entries[0][RequestIDKey])
	assert.Equal(t, 1.5, entries[0][DurationMsKey])
	assert.Equal(t, "api", entries[0][ComponentKey])

	assert.Equal(t, "warn", entries[1]["level"])
	detail, ok := entries[1]["error_detail"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ValidationError", detail["type"])
}
