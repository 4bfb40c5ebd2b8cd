// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/predictfund/engine/internal/adapters/repository"
	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/internal/domain/types"
	"github.com/predictfund/engine/pkg/logger"
	"github.com/predictfund/engine/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultListSize   = 10
	DefaultMaxLimit   = 100
	DefaultRefreshTTL = 5 * time.Minute
	DefaultBackoff    = 30 * time.Second
)

// SnapshotComputer produces one full leaderboard snapshot.
type SnapshotComputer interface {
	Run(ctx context.Context) (model.Snapshot, error)
}

// Service serves leaderboard reads from a cached snapshot and keeps that
// snapshot refreshed in the background. Reads never block while any
// snapshot exists, even an expired one; only the very first load waits.
type Service struct {
	mu sync.RWMutex

	// Core components
	pipeline SnapshotComputer
	store    *repository.SnapshotStore

	// Configuration
	ttl             time.Duration
	backoff         time.Duration
	defaultListSize int
	maxLimit        int
	workerCount     int

	// Refresh state: at most one computation runs at a time; concurrent
	// triggers join the in-flight one.
	refreshMu   sync.Mutex
	inflight    *refreshRun
	lastFailure time.Time

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTTL sets the snapshot freshness window and background refresh cadence.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBackoff sets the wait after a failed refresh before retrying.
func WithBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// WithDefaultListSize sets the entry count served when no limit is given.
func WithDefaultListSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultListSize = n
		}
	}
}

// WithMaxLimit caps the entry count a single request may ask for.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithWorkerCount records the aggregation fan-out for monitoring output.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithStore injects a prebuilt snapshot store, for tests.
func WithStore(store *repository.SnapshotStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service over the given snapshot computer.
func New(pipeline SnapshotComputer, opts ...Option) *Service {
	s := &Service{
		pipeline:        pipeline,
		ttl:             DefaultRefreshTTL,
		backoff:         DefaultBackoff,
		defaultListSize: DefaultListSize,
		maxLimit:        DefaultMaxLimit,
		workerCount:     runtime.NumCPU() * 2,
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the snapshot store and launches the background refresh
// loop. It returns without waiting for the first snapshot; the first read
// blocks until one exists.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore(repository.WithTTL(s.ttl))
	}

	s.started = true
	s.wg.Add(1)
	go s.refreshLoop(ctx)

	s.logger.Info(ctx, "leaderboard service started",
		logger.Duration("ttl", s.ttl),
		logger.Duration("backoff", s.backoff),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

// Stop gracefully shuts down the background refresh loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// refreshLoop recomputes the snapshot on the TTL cadence. A failed run keeps
// the previous snapshot and retries after the backoff instead of waiting a
// whole period.
func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	wait := time.Duration(0) // first run immediately
	for {
		var timer *time.Timer
		if wait > 0 {
			timer = time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.stopCh:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.waitRefresh(ctx); err != nil {
			s.logger.Warn(ctx, "snapshot refresh failed, keeping previous snapshot",
				logger.Error(err),
				logger.Duration("retry_in", s.backoff),
			)
			wait = s.backoff
			continue
		}
		wait = s.ttl
	}
}

// refreshRun is one snapshot computation. err is only read after done closes.
type refreshRun struct {
	done chan struct{}
	err  error
}

// triggerRefresh starts a refresh unless one is already running, in which
// case the in-flight run is returned and joined instead.
func (s *Service) triggerRefresh(ctx context.Context) *refreshRun {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.inflight != nil {
		return s.inflight
	}

	run := &refreshRun{done: make(chan struct{})}
	s.inflight = run
	go func() {
		snap, err := s.pipeline.Run(ctx)

		s.refreshMu.Lock()
		s.inflight = nil
		if err != nil {
			s.lastFailure = time.Now()
		}
		s.refreshMu.Unlock()

		if err != nil {
			run.err = err
			s.logger.Warn(ctx, "snapshot computation failed", logger.Error(err))
		} else {
			s.store.Put(snap)
		}
		close(run.done)
	}()
	return run
}

// waitRefresh runs one refresh to completion.
func (s *Service) waitRefresh(ctx context.Context) error {
	run := s.triggerRefresh(ctx)
	select {
	case <-run.done:
		return run.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// serveState records the cache metric for a read and kicks off a background
// refresh when the served snapshot is past its TTL.
func (s *Service) serveState(ctx context.Context, state repository.Freshness) {
	metrics.RecordCacheServe(state.String())
	if state != repository.Stale {
		return
	}
	s.refreshMu.Lock()
	inBackoff := !s.lastFailure.IsZero() && time.Since(s.lastFailure) < s.backoff
	s.refreshMu.Unlock()
	if !inBackoff {
		s.triggerRefresh(context.WithoutCancel(ctx))
	}
}

// awaitFirstSnapshot blocks until a snapshot exists. Only the very first
// load takes this path. The computation is detached from the waiting
// reader's context: the run is shared, so one reader giving up must not
// fail it for everyone joined on it.
func (s *Service) awaitFirstSnapshot(ctx context.Context) error {
	metrics.RecordCacheBlockingLoad()
	for s.store.Freshness() == repository.Empty {
		run := s.triggerRefresh(context.WithoutCancel(ctx))
		select {
		case <-run.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.store.Freshness() != repository.Empty {
			return nil
		}
		// Computation failed with nothing to fall back on; honor the
		// backoff before trying again.
		timer := time.NewTimer(s.backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return nil
}

// clampLimit resolves the requested entry count against the configured
// default and ceiling.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultListSize
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// Leaderboard returns the top entries of the current snapshot.
func (s *Service) Leaderboard(ctx context.Context, limit int) (types.Leaderboard, error) {
	limit = s.clampLimit(limit)

	entries, state, computed, err := s.store.TopN(limit)
	if errors.Is(err, repository.ErrEmpty) {
		if err = s.awaitFirstSnapshot(ctx); err != nil {
			return types.Leaderboard{}, err
		}
		entries, state, computed, err = s.store.TopN(limit)
	}
	if err != nil {
		return types.Leaderboard{}, err
	}

	s.serveState(ctx, state)
	return types.Leaderboard{
		Entries:    types.FromEntries(entries),
		Stale:      state == repository.Stale,
		ComputedAt: computed,
	}, nil
}

// Rank returns the snapshot entry for one address.
func (s *Service) Rank(ctx context.Context, address string) (types.Rank, error) {
	entry, state, computed, err := s.store.Rank(address)
	if errors.Is(err, repository.ErrEmpty) {
		if err = s.awaitFirstSnapshot(ctx); err != nil {
			return types.Rank{}, err
		}
		entry, state, computed, err = s.store.Rank(address)
	}
	if err != nil {
		return types.Rank{}, err
	}

	s.serveState(ctx, state)
	return types.Rank{
		Entry:      types.FromEntry(entry),
		Stale:      state == repository.Stale,
		ComputedAt: computed,
	}, nil
}

// Stats returns the dashboard overview values.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	sum, state, computed, err := s.store.Stats()
	if errors.Is(err, repository.ErrEmpty) {
		if err = s.awaitFirstSnapshot(ctx); err != nil {
			return types.Stats{}, err
		}
		sum, state, computed, err = s.store.Stats()
	}
	if err != nil {
		return types.Stats{}, err
	}

	s.serveState(ctx, state)
	out := types.Stats{
		QualifiedCount:   sum.QualifiedCount,
		TotalStakedWhole: model.WeiToWhole(sum.TotalStaked),
		Stale:            state == repository.Stale,
		ComputedAt:       computed,
	}
	if sum.Top != nil {
		top := types.FromEntry(*sum.Top)
		out.TopPredictor = &top
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"ttl_seconds":     s.ttl.Seconds(),
		"backoff_seconds": s.backoff.Seconds(),
		"worker_count":    s.workerCount,
	}

	if s.store != nil {
		state := s.store.Freshness()
		stats["snapshot_state"] = state.String()
		if entries, _, computed, err := s.store.TopN(0); err == nil {
			stats["snapshot_entries"] = len(entries)
			stats["computed_at"] = computed
		}
	}
	return stats
}
