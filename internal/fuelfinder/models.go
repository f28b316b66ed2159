// Package fuelfinder provides station data synchronization and caching for
// the UK Fuel Finder API.
package fuelfinder

import (
	"errors"
	"time"
)

// Package errors.
var (
	ErrMissingCredentials = errors.New("missing fuel finder client credentials")
	ErrNoSnapshot         = errors.New("no station snapshot available")
)

// FuelKind identifies a consumer fuel category.
type FuelKind string

const (
	FuelPetrol FuelKind = "petrol"
	FuelDiesel FuelKind = "diesel"
)

// FuelPriceEntry is a single loosely-typed price entry as delivered by
// upstream. Field names vary between data loads; use ExtractPrices to
// normalise them.
type FuelPriceEntry map[string]any

// StationRecord is one fuel station as known to the upstream API.
// Optional attributes are pointers so an incremental update that omits a
// field can be distinguished from one that sets it: absent fields are
// preserved from the prior record during a merge.
type StationRecord struct {
	NodeID           string           `json:"node_id"`
	TradingName      *string          `json:"trading_name,omitempty"`
	BrandName        *string          `json:"brand_name,omitempty"`
	OrganisationName *string          `json:"mft_organisation_name,omitempty"`
	TemporaryClosure *bool            `json:"temporary_closure,omitempty"`
	PermanentClosure *bool            `json:"permanent_closure,omitempty"`
	Location         map[string]any   `json:"location,omitempty"`
	FuelPrices       []FuelPriceEntry `json:"fuel_prices,omitempty"`
}

// Closed reports whether the station is flagged as temporarily or
// permanently closed.
func (s *StationRecord) Closed() bool {
	return boolValue(s.TemporaryClosure) || boolValue(s.PermanentClosure)
}

// PriceRecord is one element of the fuel price feed. Upstream has shipped
// two shapes over time: a wrapper record carrying a fuel_prices list, and a
// flat record that is itself a single price entry. Entries normalises both.
type PriceRecord map[string]any

// NodeID returns the station identifier carried by the price record.
func (p PriceRecord) NodeID() string {
	v, _ := p["node_id"].(string)
	return v
}

// Entries returns the price entries carried by the record. A wrapper record
// yields its embedded fuel_prices list; a flat record yields itself as a
// single entry.
func (p PriceRecord) Entries() []FuelPriceEntry {
	raw, ok := p["fuel_prices"]
	if !ok {
		return []FuelPriceEntry{FuelPriceEntry(p)}
	}

	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	entries := make([]FuelPriceEntry, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			entries = append(entries, FuelPriceEntry(m))
		}
	}
	return entries
}

// Snapshot is one immutable, fully-merged view of all known stations.
// It is replaced wholesale on every successful refresh; holders of a
// published snapshot never observe later mutations.
type Snapshot struct {
	// UpdatedAt is when this snapshot was produced.
	UpdatedAt time.Time `json:"updatedAt"`

	// LastSyncAt is the watermark used for the next incremental sync.
	LastSyncAt time.Time `json:"lastSyncAt"`

	// Stations holds all known stations keyed by node_id.
	Stations map[string]*StationRecord `json:"stations"`
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Stations: make(map[string]*StationRecord),
	}
}

// StationList returns all stations as a slice.
func (s *Snapshot) StationList() []*StationRecord {
	stations := make([]*StationRecord, 0, len(s.Stations))
	for _, station := range s.Stations {
		stations = append(stations, station)
	}
	return stations
}

// Age returns how long ago the snapshot was produced.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
