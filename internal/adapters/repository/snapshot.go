// Package repository stores the latest leaderboard snapshot and serves
// reads against it. A single snapshot covers the full qualified set, so
// listing, rank lookup and stats are all slices or scans of one value.
package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/predictfund/engine/internal/domain/leaderboard"
	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/pkg/metrics"
)

// Freshness describes the served snapshot relative to its TTL.
type Freshness int

// Freshness states.
const (
	Empty Freshness = iota // no snapshot stored yet
	Fresh                  // within TTL
	Stale                  // past TTL, still servable
)

// String returns the lower-case state name, used as a metric label.
func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "empty"
	}
}

// DefaultTTL is the snapshot freshness window.
const DefaultTTL = 5 * time.Minute

// SnapshotStore holds the latest snapshot behind a read-write lock.
// Writers replace the whole value; readers never observe a partial update.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot *model.Snapshot

	ttl time.Duration
	now func() time.Time
}

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *SnapshotStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put replaces the stored snapshot.
func (s *SnapshotStore) Put(snap model.Snapshot) {
	s.mu.Lock()
	s.snapshot = &snap
	s.mu.Unlock()

	metrics.UpdateSnapshotEntries(len(snap.Entries))
	metrics.UpdateSnapshotComputedAt(snap.ComputedAt)
}

// Freshness reports the stored snapshot's state.
func (s *SnapshotStore) Freshness() Freshness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshnessLocked()
}

func (s *SnapshotStore) freshnessLocked() Freshness {
	if s.snapshot == nil {
		return Empty
	}
	if s.now().Sub(s.snapshot.ComputedAt) > s.ttl {
		return Stale
	}
	return Fresh
}

// TopN returns the highest-ranked limit entries together with the snapshot's
// freshness and computation time. A limit <= 0 returns every entry.
func (s *SnapshotStore) TopN(limit int) ([]model.LeaderboardEntry, Freshness, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.freshnessLocked()
	if state == Empty {
		return nil, Empty, time.Time{}, ErrEmpty
	}

	entries := s.snapshot.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]model.LeaderboardEntry, len(entries))
	copy(out, entries)
	return out, state, s.snapshot.ComputedAt, nil
}

// Rank returns the entry for one address.
func (s *SnapshotStore) Rank(address string) (model.LeaderboardEntry, Freshness, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.freshnessLocked()
	if state == Empty {
		return model.LeaderboardEntry{}, Empty, time.Time{}, ErrEmpty
	}

	addr := model.NormalizeAddress(address)
	for _, e := range s.snapshot.Entries {
		if e.Address == addr {
			return e, state, s.snapshot.ComputedAt, nil
		}
	}
	return model.LeaderboardEntry{}, state, s.snapshot.ComputedAt,
		fmt.Errorf("%w: %s", ErrNotFound, addr)
}

// Stats returns the dashboard summary derived from the stored snapshot.
func (s *SnapshotStore) Stats() (leaderboard.Summary, Freshness, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.freshnessLocked()
	if state == Empty {
		return leaderboard.Summary{}, Empty, time.Time{}, ErrEmpty
	}

	return leaderboard.Summary{
		Top:            topEntry(s.snapshot),
		QualifiedCount: s.snapshot.QualifiedCount,
		TotalStaked:    s.snapshot.TotalStakedQualified,
	}, state, s.snapshot.ComputedAt, nil
}

func topEntry(snap *model.Snapshot) *model.LeaderboardEntry {
	if top, ok := snap.Top(); ok {
		return &top
	}
	return nil
}
