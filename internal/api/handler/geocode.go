package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fuelr/fuelr/internal/api/models"
	"github.com/fuelr/fuelr/internal/api/response"
	"github.com/fuelr/fuelr/internal/geocode/nominatim"
	"github.com/fuelr/fuelr/pkg/geo"
)

// Geocoder resolves a postcode to coordinates.
type Geocoder interface {
	SearchPostcode(ctx context.Context, postcode string) (geo.LatLng, error)
}

// GeocodeHandler handles postcode lookup endpoints.
type GeocodeHandler struct {
	geocoder Geocoder
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Lookup handles GET /v1/geocode - resolves a UK postcode to coordinates.
func (h *GeocodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	postcode := strings.TrimSpace(r.URL.Query().Get("postcode"))
	if postcode == "" {
		response.BadRequest(w, r, "invalid geocode query", []models.FieldError{
			{Field: "postcode", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	point, err := h.geocoder.SearchPostcode(r.Context(), postcode)
	if err != nil {
		if errors.Is(err, nominatim.ErrNoResults) {
			response.NotFound(w, r, "postcode could not be resolved")
			return
		}
		response.BadGateway(w, r, "geocoding provider error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeResult{
		Postcode: postcode,
		Lat:      point.Lat,
		Lng:      point.Lng,
	})
}
