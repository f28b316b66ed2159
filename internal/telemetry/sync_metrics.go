package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const syncMeterName = "github.com/fuelr/fuelr/internal/telemetry"

// SyncMetrics holds instruments for station data synchronization and cache
// behaviour.
type SyncMetrics struct {
	refreshDuration metric.Float64Histogram
	refreshTotal    metric.Int64Counter
	stationCount    metric.Int64Gauge
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewSyncMetrics creates metrics for monitoring snapshot refreshes.
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(syncMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"sync.refresh.duration",
		metric.WithDescription("Duration of station data refreshes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	refreshTotal, err := meter.Int64Counter(
		"sync.refresh.total",
		metric.WithDescription("Total number of station data refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	stationCount, err := meter.Int64Gauge(
		"sync.stations.count",
		metric.WithDescription("Number of stations in the current snapshot"),
		metric.WithUnit("{station}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"sync.cache.hit",
		metric.WithDescription("Number of snapshot reads served from the fresh cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"sync.cache.miss",
		metric.WithDescription("Number of snapshot reads that were stale or empty"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		refreshDuration: refreshDuration,
		refreshTotal:    refreshTotal,
		stationCount:    stationCount,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}, nil
}

// RecordRefresh records the outcome of one refresh pass. A nil receiver is a
// no-op so callers can leave metrics unconfigured.
func (m *SyncMetrics) RecordRefresh(duration time.Duration, stations int, incremental bool, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("sync.incremental", incremental),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Use background context so a cancelled refresh still records
	ctx := context.Background()
	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.refreshTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err == nil {
		m.stationCount.Record(ctx, int64(stations))
	}
}

// RecordCacheHit records a snapshot read served fresh from memory.
func (m *SyncMetrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.Background(), 1)
}

// RecordCacheMiss records a snapshot read that found stale or missing data.
func (m *SyncMetrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.Background(), 1)
}
