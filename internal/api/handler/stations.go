package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fuelr/fuelr/internal/api/models"
	"github.com/fuelr/fuelr/internal/api/response"
	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/internal/stations"
	"github.com/fuelr/fuelr/pkg/geo"
)

// StationFinder ranks cached fuel stations for an origin.
type StationFinder interface {
	Nearby(ctx context.Context, query stations.Query) (*stations.Result, error)
}

// StationsHandler handles station lookup endpoints.
type StationsHandler struct {
	finder StationFinder
}

// NewStationsHandler creates a new StationsHandler.
func NewStationsHandler(finder StationFinder) *StationsHandler {
	return &StationsHandler{finder: finder}
}

// ListNearby handles GET /v1/stations - ranked stations around an origin.
func (h *StationsHandler) ListNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldErrors []models.FieldError

	lat, err := parseCoordinate(q.Get("lat"), -90, 90)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "lat",
			Message: err.Error(),
			Code:    fieldErrorCode(q.Get("lat")),
		})
	}
	lng, err := parseCoordinate(q.Get("lng"), -180, 180)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "lng",
			Message: err.Error(),
			Code:    fieldErrorCode(q.Get("lng")),
		})
	}

	fuel := fuelfinder.FuelPetrol
	switch q.Get("fuel") {
	case "", string(models.FuelTypePetrol):
	case string(models.FuelTypeDiesel):
		fuel = fuelfinder.FuelDiesel
	default:
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "fuel",
			Message: "must be one of petrol, diesel",
			Code:    "INVALID_VALUE",
		})
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid station query", fieldErrors)
		return
	}

	query := stations.Query{
		Origin: geo.LatLng{Lat: lat, Lng: lng},
		Fuel:   fuel,
		Sort:   stations.ResolveSortMode(q.Get("sort"), q.Has("cheapest"), q.Has("nearest")),
	}

	result, err := h.finder.Nearby(r.Context(), query)
	if err != nil {
		response.BadGateway(w, r, "station data is unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// parseCoordinate parses a required decimal-degree query parameter and
// checks it against the given bounds.
func parseCoordinate(raw string, min, max float64) (float64, error) {
	if raw == "" {
		return 0, errRequired
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errNotANumber
	}
	if value < min || value > max {
		return 0, &rangeError{min: min, max: max}
	}
	return value, nil
}

func fieldErrorCode(raw string) string {
	if raw == "" {
		return "REQUIRED"
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "NOT_A_NUMBER"
	}
	return "OUT_OF_RANGE"
}

var (
	errRequired   = &staticError{"is required"}
	errNotANumber = &staticError{"must be a decimal number"}
)

type staticError struct{ msg string }

func (e *staticError) Error() string { return e.msg }

type rangeError struct{ min, max float64 }

func (e *rangeError) Error() string {
	return "must be between " + strconv.FormatFloat(e.min, 'f', -1, 64) +
		" and " + strconv.FormatFloat(e.max, 'f', -1, 64)
}
