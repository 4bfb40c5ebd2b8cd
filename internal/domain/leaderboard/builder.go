// Package leaderboard turns participant aggregates into a ranked listing.
package leaderboard

import (
	"math/big"
	"sort"

	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/internal/domain/scoring"
)

// DefaultMinPredictions is the qualification threshold for the public listing.
const DefaultMinPredictions = 10

// Builder filters, scores and ranks aggregates.
type Builder struct {
	minPredictions int
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithMinPredictions overrides the qualification threshold.
func WithMinPredictions(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.minPredictions = n
		}
	}
}

// NewBuilder creates a Builder with the default qualification threshold.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{minPredictions: DefaultMinPredictions}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the ranked leaderboard: aggregates below the qualification
// threshold are dropped, the rest are scored, sorted by score descending and
// assigned dense 1-based ranks. Ties keep the input (discovery) order; the
// sort is stable, not address-deterministic. A limit <= 0 returns every
// qualified entry.
func (b *Builder) Build(aggs []model.ParticipantAggregate, limit int) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Predictions < b.minPredictions {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			ParticipantAggregate: agg,
			Score:                scoring.Score(agg.WinRate(), agg.Predictions, agg.StakedWholeUnits()),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Summary holds the dashboard card values derived from a built listing.
type Summary struct {
	Top            *model.LeaderboardEntry
	QualifiedCount int
	TotalStaked    *big.Int
}

// Summarize derives the overview stats from an already-built listing.
// It performs no fetches; the entries must cover the full qualified set.
func Summarize(entries []model.LeaderboardEntry) Summary {
	s := Summary{
		QualifiedCount: len(entries),
		TotalStaked:    new(big.Int),
	}
	for i := range entries {
		s.TotalStaked.Add(s.TotalStaked, entries[i].TotalStaked)
	}
	if len(entries) > 0 {
		s.Top = &entries[0]
	}
	return s
}
