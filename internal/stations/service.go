package stations

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/fuelfinder"
	"github.com/fuelr/fuelr/pkg/geo"
)

// DefaultMaxResults caps the number of stations returned per lookup.
const DefaultMaxResults = 50

// SnapshotSource supplies the current station snapshot.
type SnapshotSource interface {
	GetStations(ctx context.Context) (*fuelfinder.Snapshot, error)
}

// ServiceConfig holds configuration for the stations service.
type ServiceConfig struct {
	// Cache supplies station snapshots (required).
	Cache SnapshotSource

	// Logger for service operations.
	Logger zerolog.Logger

	// MaxResults caps result size (default: DefaultMaxResults).
	MaxResults int
}

// Service turns raw station snapshots into ranked lookup results.
type Service struct {
	cache      SnapshotSource
	logger     zerolog.Logger
	maxResults int
}

// NewService creates a new stations service.
func NewService(cfg ServiceConfig) *Service {
	maxResults := cfg.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{
		cache:      cfg.Cache,
		logger:     cfg.Logger,
		maxResults: maxResults,
	}
}

// Nearby returns open stations ranked for the query, dropping closed
// stations and records without extractable coordinates.
func (s *Service) Nearby(ctx context.Context, query Query) (*Result, error) {
	snapshot, err := s.cache.GetStations(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]Station, 0, len(snapshot.Stations))
	for _, record := range snapshot.Stations {
		if record.Closed() {
			continue
		}
		coords, ok := record.LatLng()
		if !ok {
			continue
		}

		prices := fuelfinder.ExtractPrices(record.FuelPrices)

		brand := record.BrandName
		if brand == nil {
			brand = record.TradingName
		}

		ranked = append(ranked, Station{
			NodeID:        record.NodeID,
			BrandName:     brand,
			TradingName:   record.TradingName,
			Lat:           coords.Lat,
			Lng:           coords.Lng,
			DistanceKm:    geo.HaversineKm(query.Origin, coords),
			Prices:        prices,
			PriceSelected: prices.For(query.Fuel),
		})
	}

	sortStations(ranked, query.Sort)

	if len(ranked) > s.maxResults {
		ranked = ranked[:s.maxResults]
	}

	return &Result{
		UpdatedAt: snapshot.UpdatedAt,
		Stations:  ranked,
	}, nil
}

func sortStations(list []Station, mode SortMode) {
	switch mode {
	case SortNearest:
		sort.Slice(list, func(i, j int) bool {
			return list[i].DistanceKm < list[j].DistanceKm
		})
	case SortCheapest:
		sort.Slice(list, func(i, j int) bool {
			return selectedPrice(list[i]) < selectedPrice(list[j])
		})
	default:
		sort.Slice(list, func(i, j int) bool {
			pi, pj := selectedPrice(list[i]), selectedPrice(list[j])
			if pi != pj {
				return pi < pj
			}
			return list[i].DistanceKm < list[j].DistanceKm
		})
	}
}

// selectedPrice sorts stations without a known price last.
func selectedPrice(s Station) float64 {
	if s.PriceSelected == nil {
		return math.Inf(1)
	}
	return *s.PriceSelected
}
