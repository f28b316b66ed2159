// Package stations ranks cached fuel stations by price and distance for a
// caller-supplied origin.
package stations

import (
	"time"

	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/pkg/geo"
)

// SortMode controls result ordering.
type SortMode string

const (
	// SortCheapest orders by selected fuel price, ascending.
	SortCheapest SortMode = "cheapest"

	// SortNearest orders by distance from the origin, ascending.
	SortNearest SortMode = "nearest"

	// SortBoth orders by price first, breaking ties by distance.
	SortBoth SortMode = "both"
)

// ResolveSortMode maps the query surface (a sort parameter plus legacy
// cheapest/nearest boolean flags) onto a SortMode. The default is SortBoth.
func ResolveSortMode(sortParam string, cheapest, nearest bool) SortMode {
	switch SortMode(sortParam) {
	case SortCheapest, SortNearest, SortBoth:
		return SortMode(sortParam)
	}
	if cheapest && !nearest {
		return SortCheapest
	}
	if nearest && !cheapest {
		return SortNearest
	}
	return SortBoth
}

// Query describes one nearby-stations lookup.
type Query struct {
	Origin geo.LatLng
	Fuel   fuelfinder.FuelKind
	Sort   SortMode
}

// Station is one ranked station in a lookup result.
type Station struct {
	NodeID        string            `json:"nodeId"`
	BrandName     *string           `json:"brandName"`
	TradingName   *string           `json:"tradingName"`
	Lat           float64           `json:"lat"`
	Lng           float64           `json:"lng"`
	DistanceKm    float64           `json:"distanceKm"`
	Prices        fuelfinder.Prices `json:"prices"`
	PriceSelected *float64          `json:"priceSelected,omitempty"`
}

// Result is the outcome of a nearby-stations lookup.
type Result struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Stations  []Station `json:"results"`
}
