// Package api provides the HTTP API for Fuelr.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/api/handler"
	"github.com/fuelr/fuelr/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RefreshToken is the shared secret guarding forced refreshes.
	RefreshToken string

	Stations  handler.StationFinder
	Cache     handler.SnapshotRefresher
	Status    handler.CacheStatusSource
	Geocoder  handler.Geocoder
	Providers handler.ProviderHealthSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "fuelr-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Status, cfg.Providers)
	stationsHandler := handler.NewStationsHandler(cfg.Stations)
	refreshHandler := handler.NewRefreshHandler(cfg.Cache)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder)

	// Refresh guard and rate limit middleware per endpoint category
	refreshGuard := middleware.RefreshGuard(cfg.RefreshToken)
	refreshRateLimit := middleware.RateLimitByIP(middleware.RefreshRateLimit)   // 10 req/min
	geocodeRateLimit := middleware.RateLimitByIP(middleware.GeocodeRateLimit)   // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Station lookups (public) - standard rate limiting
		r.With(standardRateLimit).Get("/stations", stationsHandler.ListNearby)

		// Forced refresh - shared secret plus strict rate limiting
		r.With(refreshRateLimit, refreshGuard).Post("/stations:refresh", refreshHandler.Refresh)

		// Postcode geocoding (public) - proxies a rate limited third party
		r.With(geocodeRateLimit).Get("/geocode", geocodeHandler.Lookup)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})
	})

	return r
}
