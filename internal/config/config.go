// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/internal/worker"
)

// Config holds the full application configuration.
type Config struct {
	// App
	Port        int
	Environment string

	// Fuel Finder upstream
	FuelFinderBaseURL string
	ClientID          string
	ClientSecret      string

	// Snapshot cache
	CachePath string
	CacheTTL  time.Duration

	// RefreshToken guards the forced refresh endpoint.
	RefreshToken string

	// Worker
	WorkerInterval time.Duration

	// Telemetry
	OTELEnabled  bool
	OTELEndpoint string
}

// FromEnv creates a Config from environment variables.
func FromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("APP_PORT", "8080"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_PORT: %w", err)
	}

	cacheTTL, err := parseDuration("FUELFINDER_CACHE_TTL", fuelfinder.DefaultCacheTTL)
	if err != nil {
		return Config{}, err
	}

	workerInterval, err := parseDuration("WORKER_REFRESH_INTERVAL", worker.DefaultInterval)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:              port,
		Environment:       getEnvOrDefault("APP_ENV", "development"),
		FuelFinderBaseURL: getEnvOrDefault("FUELFINDER_BASE_URL", fuelfinder.DefaultBaseURL),
		ClientID:          os.Getenv("FUELFINDER_CLIENT_ID"),
		ClientSecret:      os.Getenv("FUELFINDER_CLIENT_SECRET"),
		CachePath:         getEnvOrDefault("FUELFINDER_CACHE_PATH", fuelfinder.DefaultCachePath),
		CacheTTL:          cacheTTL,
		RefreshToken:      os.Getenv("REFRESH_TOKEN"),
		WorkerInterval:    workerInterval,
		OTELEnabled:       os.Getenv("OTEL_ENABLED") == "true",
		OTELEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
