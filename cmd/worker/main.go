// Package main provides the entrypoint for the Fuelr refresh worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/config"
	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/internal/provider/resilience"
	"github.com/fuelr/fuelr/internal/telemetry"
	"github.com/fuelr/fuelr/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "fuelr-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Fuelr worker")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sync metrics")
	}

	tokens := fuelfinder.NewTokenSource(fuelfinder.TokenSourceConfig{
		BaseURL:      cfg.FuelFinderBaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Logger:       log,
	})
	client := fuelfinder.NewClient(fuelfinder.ClientConfig{
		BaseURL: cfg.FuelFinderBaseURL,
		Tokens:  tokens,
		HTTPClient: resilience.NewClient(
			resilience.DefaultClientConfig(fuelfinder.ProviderName),
		),
		Logger: log,
	})

	cache := fuelfinder.NewService(fuelfinder.ServiceConfig{
		Fetcher:  client,
		Store:    fuelfinder.NewSnapshotStore(cfg.CachePath),
		Logger:   log,
		CacheTTL: cfg.CacheTTL,
		Metrics:  syncMetrics,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Cache:    cache,
		Logger:   log,
		Interval: cfg.WorkerInterval,
	})

	// Health endpoint so orchestrators can probe the worker
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"job":     job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go func() {
		if err := job.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("refresh loop exited")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
