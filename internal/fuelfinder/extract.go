package fuelfinder

import (
	"strconv"
	"strings"

	"github.com/fuelr/fuelr/pkg/geo"
)

// Candidate field names for the loosely-typed upstream payloads, tried in
// priority order. Upstream schema drift has produced several encodings of
// the same attributes; extending these tables is the supported way to absorb
// a new one.
var (
	// LatitudeKeys are candidate location fields for latitude.
	LatitudeKeys = []string{"lat", "latitude", "lat_deg", "lat_deg_wgs84", "y"}

	// LongitudeKeys are candidate location fields for longitude.
	LongitudeKeys = []string{"lng", "longitude", "lon", "long", "lng_deg", "lng_deg_wgs84", "x"}

	// FuelTypeKeys are candidate price-entry fields for the fuel type code.
	FuelTypeKeys = []string{"fuel_type", "fuel_type_code", "fuelType", "code"}

	// PriceKeys are candidate price-entry fields for the price value.
	PriceKeys = []string{"price", "price_per_litre", "price_per_liter", "unit_price", "cost"}
)

// Prices holds the normalised per-fuel prices of a station. A nil field
// means no price of that kind was found.
type Prices struct {
	Petrol *float64 `json:"petrol,omitempty"`
	Diesel *float64 `json:"diesel,omitempty"`
}

// For returns the price for the given fuel kind, or nil if unknown.
func (p Prices) For(fuel FuelKind) *float64 {
	if fuel == FuelDiesel {
		return p.Diesel
	}
	return p.Petrol
}

// LatLng extracts station coordinates from the location payload. It tries
// the candidate latitude/longitude fields first and falls back to a GeoJSON
// style coordinates array ([lng, lat]). Returns false if no usable pair is
// present.
func (s *StationRecord) LatLng() (geo.LatLng, bool) {
	if s.Location == nil {
		return geo.LatLng{}, false
	}

	lat, latOK := pickNumber(s.Location, LatitudeKeys)
	lng, lngOK := pickNumber(s.Location, LongitudeKeys)
	if latOK && lngOK {
		return geo.LatLng{Lat: lat, Lng: lng}, true
	}

	coords, ok := s.Location["coordinates"].([]any)
	if ok && len(coords) >= 2 {
		lng, lngOK := toNumber(coords[0])
		lat, latOK := toNumber(coords[1])
		if latOK && lngOK {
			return geo.LatLng{Lat: lat, Lng: lng}, true
		}
	}

	return geo.LatLng{}, false
}

// ExtractPrices normalises a list of loosely-typed price entries into
// per-fuel prices. Later entries win over earlier ones for the same fuel.
func ExtractPrices(entries []FuelPriceEntry) Prices {
	var prices Prices
	for _, entry := range entries {
		fuelType := pickString(entry, FuelTypeKeys)
		value, ok := pickNumber(entry, PriceKeys)
		if !ok {
			continue
		}

		switch {
		case isDiesel(fuelType):
			v := value
			prices.Diesel = &v
		case isPetrol(fuelType):
			v := value
			prices.Petrol = &v
		}
	}
	return prices
}

func isDiesel(fuelType string) bool {
	return strings.Contains(fuelType, "diesel") || fuelType == "d" || strings.Contains(fuelType, "b7")
}

func isPetrol(fuelType string) bool {
	return strings.Contains(fuelType, "unleaded") ||
		strings.Contains(fuelType, "petrol") ||
		strings.Contains(fuelType, "e10") ||
		strings.Contains(fuelType, "e5") ||
		fuelType == "u"
}

// pickNumber returns the first numeric value found under the candidate keys.
func pickNumber(payload map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// pickString returns the first string-convertible value found under the
// candidate keys, lower-cased.
func pickString(payload map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return strings.ToLower(s)
		}
	}
	return ""
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
