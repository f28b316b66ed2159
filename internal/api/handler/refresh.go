package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fuelr/fuelr/internal/api/models"
	"github.com/fuelr/fuelr/internal/api/response"
	"github.com/fuelr/fuelr/internal/fuelfinder"
)

// SnapshotRefresher forces a full station data sync.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*fuelfinder.Snapshot, error)
}

// RefreshHandler handles forced station data refreshes.
type RefreshHandler struct {
	cache SnapshotRefresher
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(cache SnapshotRefresher) *RefreshHandler {
	return &RefreshHandler{cache: cache}
}

// Refresh handles POST /v1/stations:refresh - forces an immediate sync
// against the upstream provider and reports the resulting snapshot.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.Refresh(r.Context())
	if err != nil {
		var upstream *fuelfinder.UpstreamError
		if errors.As(err, &upstream) {
			response.BadGateway(w, r, "upstream provider error: "+upstream.Error())
			return
		}
		response.InternalError(w, r, "station data refresh failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.RefreshResult{
		StationCount: len(snapshot.Stations),
		UpdatedAt:    models.Timestamp(snapshot.UpdatedAt),
		LastSyncAt:   models.Timestamp(snapshot.LastSyncAt),
	})
}
