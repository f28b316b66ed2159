// Package worker provides background station data refresh for Fuelr.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelr/fuelr/internal/fuelfinder"
)

const (
	// DefaultInterval is how often the snapshot is refreshed.
	DefaultInterval = 30 * time.Minute

	// DefaultTimeout bounds how long a pass waits for its refresh. The
	// sync itself runs detached and still publishes when it lands; an
	// overrunning pass is reported as failed so the loop stays on
	// schedule. A full sync walks up to 200 batches per endpoint, so the
	// budget is generous.
	DefaultTimeout = 10 * time.Minute
)

// SnapshotRefresher forces a station data sync.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*fuelfinder.Snapshot, error)
}

// RefreshJob periodically refreshes the station snapshot so API instances
// sharing the snapshot file serve warm data.
type RefreshJob struct {
	cache    SnapshotRefresher
	logger   zerolog.Logger
	interval time.Duration
	timeout  time.Duration

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes  int64
	FailedRefreshes int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration

	// LastStationCount is the snapshot size after the last successful pass.
	LastStationCount int
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	// Cache is the station cache to refresh (required).
	Cache SnapshotRefresher

	// Logger for job output.
	Logger zerolog.Logger

	// Interval between refresh passes. Default: DefaultInterval.
	Interval time.Duration

	// Timeout for a single pass. Default: DefaultTimeout.
	Timeout time.Duration
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RefreshJob{
		cache:    cfg.Cache,
		logger:   cfg.Logger,
		interval: interval,
		timeout:  timeout,
		metrics:  &RefreshMetrics{},
	}
}

// Run refreshes immediately, then on every interval tick until the context
// is cancelled. A failed pass is logged and retried on the next tick.
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Info().
		Dur("interval", j.interval).
		Msg("starting station refresh loop")

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error().Err(err).Msg("initial station refresh failed")
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("station refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error().Err(err).Msg("station refresh failed")
			}
		}
	}
}

// RunOnce executes a single refresh pass. The pass waits at most the
// configured timeout. The cache detaches its refresh from caller
// cancellation, so an overrunning sync keeps going and publishes whenever
// it lands; RunOnce stops waiting, counts the pass as failed and returns
// the deadline error.
func (j *RefreshJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	waitCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	type refreshResult struct {
		snapshot *fuelfinder.Snapshot
		err      error
	}
	done := make(chan refreshResult, 1)
	go func() {
		snapshot, err := j.cache.Refresh(waitCtx)
		done <- refreshResult{snapshot: snapshot, err: err}
	}()

	var res refreshResult
	select {
	case res = <-done:
	case <-waitCtx.Done():
		duration := time.Since(start)
		j.updateMetrics(duration, 0, waitCtx.Err())
		j.logger.Warn().
			Dur("duration", duration).
			Dur("timeout", j.timeout).
			Msg("station refresh pass exceeded its budget, sync continues in background")
		return waitCtx.Err()
	}

	duration := time.Since(start)
	stations := 0
	if res.snapshot != nil {
		stations = len(res.snapshot.Stations)
	}
	j.updateMetrics(duration, stations, res.err)

	if res.err != nil {
		return res.err
	}

	j.logger.Info().
		Int("stations", stations).
		Dur("duration", duration).
		Msg("station refresh pass completed")
	return nil
}

func (j *RefreshJob) updateMetrics(duration time.Duration, stations int, err error) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	if err != nil {
		j.metrics.FailedRefreshes++
	} else {
		j.metrics.LastStationCount = stations
	}
	j.metrics.LastRefreshAt = time.Now()
	j.metrics.LastRefreshDuration = duration
	j.metrics.TotalDuration += duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
		LastStationCount:    j.metrics.LastStationCount,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"failed_refreshes":      m.FailedRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
		"last_station_count":    m.LastStationCount,
	}
}
