package fuelfinder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelr/fuelr/internal/fuelfinder"
)

func strPtr(s string) *string { return &s }

func TestMerge_FullMode(t *testing.T) {
	stations := []fuelfinder.StationRecord{
		{NodeID: "A", TradingName: strPtr("X")},
	}
	prices := []fuelfinder.PriceRecord{
		{"node_id": "A", "fuel_type": "unleaded", "price": 142.9},
	}

	merged := fuelfinder.Merge(nil, stations, prices, false)

	require.Len(t, merged, 1)
	station := merged["A"]
	require.NotNil(t, station)
	assert.Equal(t, "X", *station.TradingName)
	require.Len(t, station.FuelPrices, 1)
	assert.Equal(t, "unleaded", station.FuelPrices[0]["fuel_type"])
	assert.Equal(t, 142.9, station.FuelPrices[0]["price"])
}

func TestMerge_FullMode_EmbeddedPriceFallback(t *testing.T) {
	stations := []fuelfinder.StationRecord{
		{
			NodeID:     "A",
			FuelPrices: []fuelfinder.FuelPriceEntry{{"fuel_type": "diesel", "price": 151.2}},
		},
		{NodeID: "B"},
	}

	merged := fuelfinder.Merge(nil, stations, nil, false)

	require.Len(t, merged, 2)
	require.Len(t, merged["A"].FuelPrices, 1)
	assert.Equal(t, "diesel", merged["A"].FuelPrices[0]["fuel_type"])
	assert.NotNil(t, merged["B"].FuelPrices)
	assert.Empty(t, merged["B"].FuelPrices)
}

func TestMerge_FullMode_DropsPriorStations(t *testing.T) {
	prev := fuelfinder.NewSnapshot()
	prev.Stations["OLD"] = &fuelfinder.StationRecord{NodeID: "OLD"}

	merged := fuelfinder.Merge(prev, []fuelfinder.StationRecord{{NodeID: "A"}}, nil, false)

	require.Len(t, merged, 1)
	assert.Contains(t, merged, "A")
}

func TestMerge_Incremental_PreservesUntouchedStations(t *testing.T) {
	prev := fuelfinder.NewSnapshot()
	prev.Stations["A"] = &fuelfinder.StationRecord{
		NodeID:      "A",
		TradingName: strPtr("Alpha"),
		FuelPrices:  []fuelfinder.FuelPriceEntry{{"fuel_type": "unleaded", "price": 140.0}},
	}
	prev.Stations["B"] = &fuelfinder.StationRecord{NodeID: "B", TradingName: strPtr("Beta")}

	merged := fuelfinder.Merge(prev, []fuelfinder.StationRecord{{NodeID: "C"}}, nil, true)

	require.Len(t, merged, 3)
	assert.Same(t, prev.Stations["A"], merged["A"], "untouched station carried over unchanged")
	assert.Same(t, prev.Stations["B"], merged["B"])
	assert.Contains(t, merged, "C")
}

func TestMerge_Incremental_ShallowMergeFields(t *testing.T) {
	prev := fuelfinder.NewSnapshot()
	prev.Stations["A"] = &fuelfinder.StationRecord{
		NodeID:      "A",
		TradingName: strPtr("Old Name"),
		BrandName:   strPtr("Old Brand"),
		Location:    map[string]any{"lat": 51.5, "lng": -0.1},
	}

	update := []fuelfinder.StationRecord{
		{NodeID: "A", TradingName: strPtr("New Name")},
	}

	merged := fuelfinder.Merge(prev, update, nil, true)

	station := merged["A"]
	require.NotNil(t, station)
	assert.Equal(t, "New Name", *station.TradingName, "updated field wins")
	assert.Equal(t, "Old Brand", *station.BrandName, "absent field preserved")
	assert.Equal(t, 51.5, station.Location["lat"], "absent location preserved")

	// Prior record is untouched.
	assert.Equal(t, "Old Name", *prev.Stations["A"].TradingName)
}

func TestMerge_Incremental_PriceOnlyUpdate(t *testing.T) {
	prev := fuelfinder.NewSnapshot()
	prev.Stations["A"] = &fuelfinder.StationRecord{
		NodeID:      "A",
		TradingName: strPtr("Alpha"),
		FuelPrices:  []fuelfinder.FuelPriceEntry{{"fuel_type": "unleaded", "price": 140.0}},
	}

	prices := []fuelfinder.PriceRecord{
		{"node_id": "A", "fuel_type": "unleaded", "price": 143.5},
	}

	merged := fuelfinder.Merge(prev, nil, prices, true)

	station := merged["A"]
	require.NotNil(t, station)
	assert.Equal(t, "Alpha", *station.TradingName, "metadata retained")
	require.Len(t, station.FuelPrices, 1)
	assert.Equal(t, 143.5, station.FuelPrices[0]["price"], "price list replaced")

	// Prior snapshot's record must not have been mutated.
	assert.Equal(t, 140.0, prev.Stations["A"].FuelPrices[0]["price"])
}

func TestMerge_Incremental_WrappedPriceRecord(t *testing.T) {
	prev := fuelfinder.NewSnapshot()
	prev.Stations["A"] = &fuelfinder.StationRecord{NodeID: "A"}

	prices := []fuelfinder.PriceRecord{
		{
			"node_id": "A",
			"fuel_prices": []any{
				map[string]any{"fuel_type": "unleaded", "price": 139.9},
				map[string]any{"fuel_type": "diesel", "price": 148.1},
			},
		},
	}

	merged := fuelfinder.Merge(prev, nil, prices, true)

	require.Len(t, merged["A"].FuelPrices, 2)
}

func TestMerge_Idempotent(t *testing.T) {
	stations := []fuelfinder.StationRecord{
		{NodeID: "A", TradingName: strPtr("Alpha")},
		{NodeID: "B", TradingName: strPtr("Beta")},
	}
	prices := []fuelfinder.PriceRecord{
		{"node_id": "A", "fuel_type": "unleaded", "price": 142.9},
	}

	snapshot := &fuelfinder.Snapshot{
		UpdatedAt:  time.Now(),
		LastSyncAt: time.Now(),
		Stations:   fuelfinder.Merge(nil, stations, prices, false),
	}

	once := fuelfinder.Merge(snapshot, stations, prices, true)
	snapshot.Stations = once
	twice := fuelfinder.Merge(snapshot, stations, prices, true)

	assert.Equal(t, once, twice)
	assert.Len(t, twice, 2)
}

func TestMerge_LatestPriceEntryWins(t *testing.T) {
	prices := []fuelfinder.PriceRecord{
		{"node_id": "A", "fuel_type": "unleaded", "price": 140.0},
		{"node_id": "A", "fuel_type": "unleaded", "price": 141.0},
	}

	merged := fuelfinder.Merge(nil, []fuelfinder.StationRecord{{NodeID: "A"}}, prices, false)

	require.Len(t, merged["A"].FuelPrices, 1)
	assert.Equal(t, 141.0, merged["A"].FuelPrices[0]["price"])
}
