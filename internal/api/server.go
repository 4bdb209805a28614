// Package api provides the HTTP API server for the refdata service.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refdata-io/refdata/internal/api/middleware"
	"github.com/refdata-io/refdata/internal/asof"
	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/watermark"
)

// healthChecker is implemented by storage backends that can verify
// connectivity on demand (store.PostgresTimelineStore; store.MemoryStore
// has nothing to check and simply doesn't implement this).
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server represents the HTTP API server.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	config      *ServerConfig
	startTime   time.Time
	timeline    segment.TimelineStore
	marks       watermark.Store
	asofStore   asof.Store
	driver      *watermark.Driver
	validator   *segment.Validator
	rateLimiter middleware.RateLimiter
}

// NewServer creates a new HTTP server instance with structured logging and middleware stack.
//
// Dependencies are injected explicitly rather than being part of ServerConfig,
// separating configuration (what) from dependencies (how).
//
// Parameters:
//   - cfg: pure server configuration (ports, timeouts, CORS settings, admin key hash)
//   - timeline: bi-temporal segment store (REQUIRED - panics if nil)
//   - marks: watermark store for the configured pipeline (REQUIRED - panics if nil)
//   - asofStore: point-in-time projection store (REQUIRED - panics if nil)
//   - validator: shared fact validator (thread-safe, created once)
//   - rateLimiter: rate limiter implementation (nil disables rate limiting)
func NewServer(
	cfg *ServerConfig,
	timeline segment.TimelineStore,
	marks watermark.Store,
	asofStore asof.Store,
	validator *segment.Validator,
	rateLimiter middleware.RateLimiter,
) *Server {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if timeline == nil || marks == nil || asofStore == nil {
		logger.Error("timeline, watermark and as-of stores are required - cannot start server without core functionality")
		panic("refdata: timeline/watermark/asof stores cannot be nil - this indicates a configuration error")
	}

	mux := http.NewServeMux()

	server := &Server{
		logger:      logger,
		config:      cfg,
		timeline:    timeline,
		marks:       marks,
		asofStore:   asofStore,
		driver:      watermark.NewDriver(timeline, marks, cfg.Pipeline),
		validator:   validator,
		rateLimiter: rateLimiter,
	}

	server.setupRoutes(mux)

	if cfg.AdminAPIKeyHash != "" { // pragma: allowlist secret
		logger.Info("admin authentication enabled for PUT /api/v1/watermark")
	} else {
		logger.Warn("REFDATA_ADMIN_API_KEY_HASH not configured - watermark override is unauthenticated")
	}

	if rateLimiter != nil {
		logger.Info("rate limiting middleware enabled")
	} else {
		logger.Warn("rate limiter not configured - rate limiting middleware disabled")
	}

	// Middleware executes in the order listed (top-to-bottom):
	//   1. CorrelationID - generate correlation ID for all responses
	//   2. Recovery - catch panics in all downstream middleware
	//   3. RateLimit - block requests before expensive operations (optional)
	//   4. RequestLogger - log only legitimate requests (not rate-limited spam)
	//   5. CORS - lightweight header manipulation
	//
	// Admin auth is applied per-route (only on PUT /watermark), not here.
	handler := middleware.Apply(mux,
		middleware.WithCorrelationID(),
		middleware.WithRecovery(logger),
		middleware.WithRateLimit(rateLimiter, logger),
		middleware.WithRequestLogger(logger),
		middleware.WithCORS(cfg.ToCORSConfig()),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	server.httpServer = httpServer

	return server
}

// Start starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT and SIGTERM signals.
func (s *Server) Start() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	s.startTime = time.Now()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting refdata API server",
			slog.String("address", s.config.Address()),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server failed to start",
				slog.String("address", s.config.Address()),
				slog.String("error", err.Error()),
			)

			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-stop:
		s.logger.Info("received shutdown signal", slog.String("signal", sig.String()))

		return s.shutdown()
	}
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("initiating server shutdown", slog.Duration("shutdown_timeout", s.config.ShutdownTimeout))

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed",
			slog.String("error", err.Error()),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.closeDependency("timeline store", s.timeline)

	s.logger.Info("server shutdown completed successfully")

	return nil
}

// closeDependency attempts to close a server dependency that implements io.Closer.
// Logs the operation and its result. Errors are logged but don't stop shutdown (best-effort).
func (s *Server) closeDependency(name string, dep interface{}) {
	if dep == nil {
		return
	}

	closer, ok := dep.(io.Closer)
	if !ok {
		return
	}

	s.logger.Info("closing " + name)

	if err := closer.Close(); err != nil {
		s.logger.Error("failed to close "+name, slog.String("error", err.Error()))

		return
	}

	s.logger.Info(name + " closed successfully")
}
