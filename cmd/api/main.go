// Package main provides the entrypoint for the Fuelr API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/api"
	"github.com/fuelr/fuelr/internal/api/middleware"
	"github.com/fuelr/fuelr/internal/config"
	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/internal/geocode/nominatim"
	"github.com/fuelr/fuelr/internal/provider/resilience"
	"github.com/fuelr/fuelr/internal/stations"
	"github.com/fuelr/fuelr/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "fuelr-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Fuelr API")

	// Get configuration from environment
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTELEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	syncMetrics, err := telemetry.NewSyncMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize sync metrics")
		os.Exit(1)
	}

	// Upstream Fuel Finder client behind retries and a circuit breaker
	providers := resilience.NewRegistry()
	tokens := fuelfinder.NewTokenSource(fuelfinder.TokenSourceConfig{
		BaseURL:      cfg.FuelFinderBaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Logger:       log,
	})
	client := fuelfinder.NewClient(fuelfinder.ClientConfig{
		BaseURL:    cfg.FuelFinderBaseURL,
		Tokens:     tokens,
		HTTPClient: resilience.NewClient(resilienceConfig(fuelfinder.ProviderName, providers)),
		Logger:     log,
	})

	// Station snapshot cache backed by the snapshot file
	cache := fuelfinder.NewService(fuelfinder.ServiceConfig{
		Fetcher:  client,
		Store:    fuelfinder.NewSnapshotStore(cfg.CachePath),
		Logger:   log,
		CacheTTL: cfg.CacheTTL,
		Metrics:  syncMetrics,
	})
	log.Info().
		Str("cache_path", cfg.CachePath).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("station cache initialized")

	// Ranking service over the cache
	stationService := stations.NewService(stations.ServiceConfig{
		Cache:  cache,
		Logger: log,
	})

	// Postcode geocoding via Nominatim
	geocoder := nominatim.NewClient(nominatim.ClientConfig{
		HTTPClient: resilience.NewClient(resilienceConfig(nominatim.ProviderName, providers)),
	})

	if cfg.RefreshToken == "" {
		log.Warn().Msg("REFRESH_TOKEN not set - forced refresh endpoint is disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		RefreshToken: cfg.RefreshToken,
		Stations:     stationService,
		Cache:        cache,
		Status:       cache,
		Geocoder:     geocoder,
		Providers:    providers,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func resilienceConfig(name string, registry *resilience.Registry) resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return cfg
}
