package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medlingo/interpreter-gateway/internal/assist"
	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/interpreter"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("realtime_model", cfg.RealtimeModel).
		Str("language_pair", cfg.PrimaryLanguage+"/"+cfg.SecondaryLanguage).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Interpreter Gateway starting")

	// Shared components
	det := detector.New(nil)
	deliverer := webhook.NewDeliverer(cfg, nil)
	assistClient := assist.NewClient(cfg)

	// Create HTTP server
	mux := http.NewServeMux()

	// Client session WebSocket
	mux.Handle("/sessions/stream", interpreter.NewWSHandler(cfg, det, deliverer, assistClient))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	checks := map[string]observability.HealthCheckFunc{
		"realtime": func(ctx context.Context) (bool, error) {
			// Validate credentials without spending a token request
			if cfg.RealtimeAPIKey == "" {
				return false, fmt.Errorf("realtime API key not configured")
			}
			return true, nil
		},
	}
	if assistClient != nil {
		checks["assist"] = func(ctx context.Context) (bool, error) {
			if err := assistClient.HealthCheck(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/sessions/stream", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
