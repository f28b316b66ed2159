// Package handler provides HTTP handlers for the Fuelr API.
package handler

import (
	"net/http"
	"time"

	"github.com/fuelr/fuelr/internal/api/models"
	"github.com/fuelr/fuelr/internal/api/response"
	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/internal/provider/resilience"
)

// CacheStatusSource reports the state of the in-memory station snapshot.
type CacheStatusSource interface {
	Status() fuelfinder.CacheStatus
}

// ProviderHealthSource reports upstream provider health.
type ProviderHealthSource interface {
	Health() []resilience.ProviderHealth
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	cache     CacheStatusSource
	providers ProviderHealthSource
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, cache CacheStatusSource, providers ProviderHealthSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		cache:     cache,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The instance
// is not ready until a first sync has landed; probes get a 503 so traffic
// is held back while the snapshot is still empty.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	cache := h.cache.Status()
	if !cache.HasData {
		response.ServiceUnavailable(w, r, "station snapshot not yet available")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"stationCount": cache.StationCount,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - cache and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	cache := h.cache.Status()

	overall := models.HealthStatusOK
	if !cache.HasData || cache.IsStale {
		overall = models.HealthStatusDegraded
	}

	providers := make([]models.ProviderStatus, 0, 2)
	for _, p := range h.providers.Health() {
		status := models.HealthStatusOK
		if !p.Healthy() {
			status = models.HealthStatusFail
			overall = models.HealthStatusDegraded
		}

		ps := models.ProviderStatus{
			Provider:     p.Name,
			Status:       status,
			CircuitState: p.CircuitState.String(),
		}
		if p.LastSuccessAt != nil {
			ts := models.Timestamp(*p.LastSuccessAt)
			ps.LastSuccessAt = &ts
		}
		if p.LastFailureAt != nil {
			ts := models.Timestamp(*p.LastFailureAt)
			ps.LastFailureAt = &ts
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		providers = append(providers, ps)
	}

	cacheStatus := models.CacheStatus{
		HasData:      cache.HasData,
		Stale:        cache.IsStale,
		StationCount: cache.StationCount,
		TTLSeconds:   int(cache.TTL / time.Second),
	}
	if !cache.UpdatedAt.IsZero() {
		ts := models.Timestamp(cache.UpdatedAt)
		cacheStatus.UpdatedAt = &ts
	}
	if !cache.LastSyncAt.IsZero() {
		ts := models.Timestamp(cache.LastSyncAt)
		cacheStatus.LastSyncAt = &ts
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    overall,
		Time:      models.Timestamp(time.Now()),
		Cache:     cacheStatus,
		Providers: providers,
	})
}
