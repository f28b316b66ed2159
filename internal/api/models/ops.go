package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Cache     CacheStatus      `json:"cache"`
	Providers []ProviderStatus `json:"providers"`
}

// CacheStatus describes the station data snapshot held in memory.
type CacheStatus struct {
	HasData      bool       `json:"hasData"`
	Stale        bool       `json:"stale"`
	StationCount int        `json:"stationCount"`
	UpdatedAt    *Timestamp `json:"updatedAt,omitempty"`
	LastSyncAt   *Timestamp `json:"lastSyncAt,omitempty"`
	TTLSeconds   int        `json:"ttlSeconds"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// RefreshResult is the response body for a forced station data refresh.
type RefreshResult struct {
	StationCount int       `json:"stationCount"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	LastSyncAt   Timestamp `json:"lastSyncAt"`
}

// GeocodeResult is the response body for a postcode lookup.
type GeocodeResult struct {
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}
