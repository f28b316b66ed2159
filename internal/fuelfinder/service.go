package fuelfinder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fuelr/fuelr/internal/telemetry"
)

// DefaultCacheTTL is how long a snapshot is served without triggering a
// background refresh.
const DefaultCacheTTL = time.Hour

// Fetcher retrieves station and price batches from upstream. The two
// fetches of one refresh run concurrently, so implementations must be safe
// for concurrent use.
type Fetcher interface {
	FetchStations(ctx context.Context, since time.Time) ([]StationRecord, error)
	FetchPrices(ctx context.Context, since time.Time) ([]PriceRecord, error)
}

// ServiceConfig holds configuration for the station cache service.
type ServiceConfig struct {
	// Fetcher retrieves upstream data (required).
	Fetcher Fetcher

	// Store persists snapshots between processes. If nil, the cache is
	// memory-only.
	Store *SnapshotStore

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a snapshot stays fresh (default: DefaultCacheTTL).
	CacheTTL time.Duration

	// Metrics records refresh and cache outcomes. Optional.
	Metrics *telemetry.SyncMetrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service owns the in-memory station snapshot. It serves cached data with
// bounded staleness, deduplicates concurrent refreshes process-wide, and
// loads/persists the snapshot from/to durable storage.
type Service struct {
	fetcher  Fetcher
	store    *SnapshotStore
	logger   zerolog.Logger
	cacheTTL time.Duration
	metrics  *telemetry.SyncMetrics
	now      func() time.Time

	mu          sync.RWMutex
	snapshot    *Snapshot
	diskChecked bool

	refreshes singleflight.Group
	diskLoads singleflight.Group
}

// NewService creates a new station cache service in the empty state: no
// snapshot in memory, disk not yet consulted.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// GetStations returns the current snapshot.
//
// A fresh snapshot is returned immediately. A stale one is also returned
// immediately, with exactly one background refresh triggered for future
// callers (stale-while-revalidate). When no snapshot exists at all, the
// disk is consulted once; failing that, all concurrent callers join a
// single synchronous refresh and share its result or error.
func (s *Service) GetStations(ctx context.Context) (*Snapshot, error) {
	if s.current() == nil {
		s.loadFromDisk()
	}

	if snapshot := s.current(); snapshot != nil {
		if snapshot.Age(s.now()) < s.cacheTTL {
			s.metrics.RecordCacheHit()
			return snapshot, nil
		}
		s.metrics.RecordCacheMiss()
		s.triggerBackgroundRefresh()
		return snapshot, nil
	}

	s.metrics.RecordCacheMiss()
	return s.Refresh(ctx)
}

// Refresh performs one fetch-merge-publish cycle, joining an already
// in-flight refresh rather than starting a second one. The cycle runs
// detached from the caller's cancellation: an abandoned caller does not
// stop it, and completed work is always published.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.refreshes.Do("refresh", func() (any, error) {
		return s.doRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// CacheStatus describes the current state of the station cache.
type CacheStatus struct {
	HasData      bool
	UpdatedAt    time.Time
	LastSyncAt   time.Time
	StationCount int
	IsStale      bool
	TTL          time.Duration
}

// Status reports the cache state for operational visibility.
func (s *Service) Status() CacheStatus {
	snapshot := s.current()
	if snapshot == nil {
		return CacheStatus{TTL: s.cacheTTL}
	}

	return CacheStatus{
		HasData:      true,
		UpdatedAt:    snapshot.UpdatedAt,
		LastSyncAt:   snapshot.LastSyncAt,
		StationCount: len(snapshot.Stations),
		IsStale:      snapshot.Age(s.now()) >= s.cacheTTL,
		TTL:          s.cacheTTL,
	}
}

// current returns the published snapshot, if any.
func (s *Service) current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// loadFromDisk attempts a single deduplicated disk load and adopts the
// result as the current snapshot. The disk is consulted at most once per
// process; failures behave as "no cache".
func (s *Service) loadFromDisk() {
	s.mu.RLock()
	checked := s.diskChecked
	s.mu.RUnlock()
	if checked || s.store == nil {
		return
	}

	s.diskLoads.Do("load", func() (any, error) {
		snapshot, err := s.store.Load()
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to load station snapshot from disk")
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.diskChecked = true
		if snapshot != nil && s.snapshot == nil {
			s.snapshot = snapshot
			s.logger.Info().
				Int("stations", len(snapshot.Stations)).
				Time("updated_at", snapshot.UpdatedAt).
				Msg("station snapshot loaded from disk")
		}
		return nil, nil
	})
}

// triggerBackgroundRefresh fires a refresh without blocking the caller.
// Concurrent triggers join the same in-flight refresh; failures are logged
// and leave the current snapshot untouched.
func (s *Service) triggerBackgroundRefresh() {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		return s.doRefresh(context.Background())
	})

	go func() {
		if result := <-ch; result.Err != nil {
			s.logger.Error().Err(result.Err).Msg("background station refresh failed")
		}
	}()
}

// doRefresh executes one refresh cycle: fetch station and price batches
// concurrently, merge against the prior snapshot, publish, then persist
// best-effort.
func (s *Service) doRefresh(ctx context.Context) (*Snapshot, error) {
	start := s.now()
	prev := s.current()

	incremental := prev != nil && !prev.LastSyncAt.IsZero()
	var since time.Time
	if incremental {
		since = prev.LastSyncAt
	}

	var (
		stations []StationRecord
		prices   []PriceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stations, err = s.fetcher.FetchStations(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.fetcher.FetchPrices(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordRefresh(s.now().Sub(start), 0, incremental, err)
		return nil, err
	}

	snapshot := &Snapshot{
		UpdatedAt:  s.now(),
		LastSyncAt: start,
		Stations:   Merge(prev, stations, prices, incremental),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	// Persistence is best-effort and never fails the refresh.
	if err := s.persist(snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist station snapshot")
	}

	s.metrics.RecordRefresh(s.now().Sub(start), len(snapshot.Stations), incremental, nil)

	s.logger.Info().
		Int("stations", len(snapshot.Stations)).
		Int("station_updates", len(stations)).
		Int("price_updates", len(prices)).
		Bool("incremental", incremental).
		Dur("duration", s.now().Sub(start)).
		Msg("station snapshot refreshed")

	return snapshot, nil
}

func (s *Service) persist(snapshot *Snapshot) error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(snapshot)
}
