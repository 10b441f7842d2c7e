// Package core provides the HTTP chassis for Skywise. It builds a chi router
// that serves both a standard net/http listener (local and container
// deployments) and AWS Lambda HTTP API events, and applies the cross-cutting
// middleware every request passes through before it reaches a handler.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skywise/internal/config"
)

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	// RecordRequest records the latency and outcome of one request. endpoint
	// is the matched route pattern, not the raw path.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a handler group onto a router.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies shared by the HTTP surface.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// HealthProbes are run by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are mounted under /v1, RootRouteRegistrars at the
	// router root (HTML pages).
	V1RouteRegistrars   []RouteRegistrar
	RootRouteRegistrars []RouteRegistrar

	// MetricsHandler, when set, is served at GET /metrics.
	MetricsHandler http.Handler

	// closers run in reverse order on Shutdown.
	closers []func(context.Context) error

	router *chi.Mux
}

// NewServer validates its inputs and returns a Server with an empty router.
// Callers attach registrars and probes, then call MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// OnShutdown registers fn to run during Shutdown.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Shutdown runs the registered shutdown hooks in reverse registration order.
// Every hook runs; the first error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown hook: %w", err)
			}
		}
	}

	s.Logger.Info("server shutdown complete")
	return firstErr
}
