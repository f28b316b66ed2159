package fuelfinder_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelr/fuelr/internal/fuelfinder"
)

func TestStationRecord_LatLng(t *testing.T) {
	tests := []struct {
		name     string
		location map[string]any
		wantLat  float64
		wantLng  float64
		wantOK   bool
	}{
		{
			name:     "plain lat/lng",
			location: map[string]any{"lat": 51.5072, "lng": -0.1276},
			wantLat:  51.5072,
			wantLng:  -0.1276,
			wantOK:   true,
		},
		{
			name:     "latitude/longitude",
			location: map[string]any{"latitude": 53.48, "longitude": -2.24},
			wantLat:  53.48,
			wantLng:  -2.24,
			wantOK:   true,
		},
		{
			name:     "wgs84 degree fields",
			location: map[string]any{"lat_deg_wgs84": 55.95, "lng_deg_wgs84": -3.19},
			wantLat:  55.95,
			wantLng:  -3.19,
			wantOK:   true,
		},
		{
			name:     "x/y fields",
			location: map[string]any{"y": 52.2, "x": 0.12},
			wantLat:  52.2,
			wantLng:  0.12,
			wantOK:   true,
		},
		{
			name:     "string-encoded numbers",
			location: map[string]any{"lat": "51.5", "lon": "-0.12"},
			wantLat:  51.5,
			wantLng:  -0.12,
			wantOK:   true,
		},
		{
			name:     "geojson coordinates are lng then lat",
			location: map[string]any{"coordinates": []any{-0.1276, 51.5072}},
			wantLat:  51.5072,
			wantLng:  -0.1276,
			wantOK:   true,
		},
		{
			name:     "missing longitude",
			location: map[string]any{"lat": 51.5},
			wantOK:   false,
		},
		{
			name:     "nil location",
			location: nil,
			wantOK:   false,
		},
		{
			name:     "priority order prefers lat over y",
			location: map[string]any{"lat": 51.5, "y": 99.0, "lng": -0.12},
			wantLat:  51.5,
			wantLng:  -0.12,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			station := fuelfinder.StationRecord{NodeID: "A", Location: tt.location}
			coords, ok := station.LatLng()
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLat, coords.Lat)
				assert.Equal(t, tt.wantLng, coords.Lng)
			}
		})
	}
}

func TestExtractPrices(t *testing.T) {
	tests := []struct {
		name       string
		entries    []fuelfinder.FuelPriceEntry
		wantPetrol *float64
		wantDiesel *float64
	}{
		{
			name: "fuel_type and price",
			entries: []fuelfinder.FuelPriceEntry{
				{"fuel_type": "unleaded", "price": 142.9},
				{"fuel_type": "diesel", "price": 151.2},
			},
			wantPetrol: floatPtr(142.9),
			wantDiesel: floatPtr(151.2),
		},
		{
			name: "alternate field encodings",
			entries: []fuelfinder.FuelPriceEntry{
				{"fuel_type_code": "E10", "price_per_litre": 141.0},
				{"code": "B7", "unit_price": 150.5},
			},
			wantPetrol: floatPtr(141.0),
			wantDiesel: floatPtr(150.5),
		},
		{
			name: "single letter codes",
			entries: []fuelfinder.FuelPriceEntry{
				{"fuel_type": "u", "cost": 139.9},
				{"fuel_type": "d", "cost": 149.9},
			},
			wantPetrol: floatPtr(139.9),
			wantDiesel: floatPtr(149.9),
		},
		{
			name: "entry without a price is skipped",
			entries: []fuelfinder.FuelPriceEntry{
				{"fuel_type": "unleaded"},
			},
		},
		{
			name: "unknown fuel type is ignored",
			entries: []fuelfinder.FuelPriceEntry{
				{"fuel_type": "lpg", "price": 80.0},
			},
		},
		{
			name:    "nil entries",
			entries: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := fuelfinder.ExtractPrices(tt.entries)
			assertPrice(t, tt.wantPetrol, prices.Petrol)
			assertPrice(t, tt.wantDiesel, prices.Diesel)
		})
	}
}

func TestPrices_For(t *testing.T) {
	prices := fuelfinder.Prices{Petrol: floatPtr(140.0), Diesel: floatPtr(150.0)}

	assert.Equal(t, 140.0, *prices.For(fuelfinder.FuelPetrol))
	assert.Equal(t, 150.0, *prices.For(fuelfinder.FuelDiesel))
}

func TestPriceRecord_Entries(t *testing.T) {
	flat := fuelfinder.PriceRecord{"node_id": "A", "fuel_type": "unleaded", "price": 142.9}
	entries := flat.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 142.9, entries[0]["price"])

	wrapped := fuelfinder.PriceRecord{
		"node_id":     "A",
		"fuel_prices": []any{map[string]any{"fuel_type": "diesel", "price": 150.0}},
	}
	entries = wrapped.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "diesel", entries[0]["fuel_type"])
}

func TestStationRecord_Closed(t *testing.T) {
	open := fuelfinder.StationRecord{NodeID: "A"}
	assert.False(t, open.Closed())

	closedFlag := true
	temporarilyClosed := fuelfinder.StationRecord{NodeID: "B", TemporaryClosure: &closedFlag}
	assert.True(t, temporarilyClosed.Closed())
}

func TestStationRecord_ShallowMergeRoundTrip(t *testing.T) {
	// A record decoded from upstream JSON keeps omitted fields nil, which is
	// what incremental merge relies on.
	var station fuelfinder.StationRecord
	require.NoError(t, json.Unmarshal([]byte(`{"node_id":"A","trading_name":"X"}`), &station))

	assert.Equal(t, "A", station.NodeID)
	require.NotNil(t, station.TradingName)
	assert.Equal(t, "X", *station.TradingName)
	assert.Nil(t, station.BrandName)
	assert.Nil(t, station.Location)
}

func floatPtr(f float64) *float64 { return &f }

func assertPrice(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.Equal(t, *want, *got)
}
