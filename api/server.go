package api

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultAddr is the loopback address the service binds to by default.
const DefaultAddr = "127.0.0.1:8080"

const shutdownGrace = 5 * time.Second

// Server routes HTTP requests to the prediction handlers.
type Server struct {
	handle    *ModelHandle
	engine    *gin.Engine
	accessLog zerolog.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithAccessLog sends access log lines to w instead of stdout.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = log.NewAccessLogger(w) }
}

// WithTimeouts sets the read and write timeouts of the HTTP server.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// NewServer builds the router. Requests to /predict fail with 503 until
// handle holds a model.
func NewServer(handle *ModelHandle, opts ...Option) *Server {
	s := &Server{
		handle:       handle,
		accessLog:    log.NewAccessLogger(os.Stdout),
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(requestID(), accessLog(s.accessLog), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := errors.NewPanicError("api."+c.Request.URL.Path, recovered)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}))
	r.GET("/health", s.health)
	r.POST("/predict", s.predict)
	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr until ctx is cancelled, then stops accepting
// connections and waits up to five seconds for in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Prediction service listening",
			log.ComponentKey, "api",
			"addr", ln.Addr().String(),
			"model_loaded", s.handle.Load() != nil,
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errors.WithStack(err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down prediction service", log.ComponentKey, "api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}
	return nil
}
