package log

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NewAccessLogger returns the zerolog logger used for one-line-per-request
// HTTP access logs. Application logs stay on slog.
func NewAccessLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str(ComponentKey, "api").
		Logger()
}

// AccessEvent is what the HTTP layer knows about a finished request.
type AccessEvent struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Latency   time.Duration
	ClientIP  string
	Err       error
}

// LogAccess writes ev at a level derived from its status code.
func LogAccess(logger zerolog.Logger, ev AccessEvent) {
	var e *zerolog.Event
	switch {
	case ev.Status >= 500:
		e = logger.Error()
	case ev.Status >= 400:
		e = logger.Warn()
	default:
		e = logger.Info()
	}

	e = e.Str(RequestIDKey, ev.RequestID).
		Str("method", ev.Method).
		Str("path", ev.Path).
		Int("status", ev.Status).
		Float64(DurationMsKey, float64(ev.Latency.Microseconds())/1000).
		Str("client_ip", ev.ClientIP)

	if ev.Err != nil {
		var m zerolog.LogObjectMarshaler
		if errors.As(ev.Err, &m) {
			e = e.Object("error_detail", m)
		}
		e = e.Err(ev.Err)
	}
	e.Msg("request")
}
