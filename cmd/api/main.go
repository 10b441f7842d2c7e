// Package main is the entry point for the Skywise API server.
//
// It loads configuration, wires the advisory service and its provider
// clients, builds the HTTP chassis and serves it either behind API Gateway
// (inside AWS Lambda) or as a plain HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"

	"skywise/internal/api/handlers"
	"skywise/internal/app"
	"skywise/internal/config"
	"skywise/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel, os.Stdout)
	logger.Info("skywise API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"metrics_backend", cfg.Observability.MetricsBackend,
	)

	comps, err := app.Build(context.Background(), cfg, logger, app.Options{})
	if err != nil {
		return fmt.Errorf("wiring components: %w", err)
	}

	srv, err := buildServer(comps)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("running in Lambda mode")
		lambda.Start(core.NewLambdaHandler(srv.Handler()))
		return nil
	}

	return runHTTPServer(srv, cfg, logger)
}

// buildServer assembles the chassis, registers every handler and mounts the
// routes.
func buildServer(comps *app.Components) (*core.Server, error) {
	srv, err := core.NewServer(comps.Config, comps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	srv.Metrics = comps.Metrics
	srv.MetricsHandler = comps.MetricsHandler

	srv.HealthProbes = append(srv.HealthProbes, core.BreakerProbe{Source: comps.Weather.Base()})
	if comps.Narrator != nil {
		srv.HealthProbes = append(srv.HealthProbes, core.BreakerProbe{Source: comps.Narrator.Base()})
	}

	advisoryHandler := handlers.NewAdvisoryHandler(comps.Advisory, srv.Validator, comps.Logger)
	evaluationHandler := handlers.NewEvaluationHandler(comps.Advisory, srv.Validator, comps.Logger)
	ruleHandler := handlers.NewRuleHandler(comps.Advisory)
	pageHandler := handlers.NewPageHandler(comps.Advisory, comps.Logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		func(r chi.Router) { r.Route("/advisories", advisoryHandler.RegisterRoutes) },
		evaluationHandler.RegisterRoutes,
		ruleHandler.RegisterRoutes,
	)
	srv.RootRouteRegistrars = append(srv.RootRouteRegistrars, pageHandler.RegisterRoutes)

	srv.MountRoutes()
	return srv, nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Narrative generation can take most of the request budget.
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
