package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/adapters/profile"
	"github.com/predictfund/engine/internal/domain/leaderboard"
	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/pkg/logger"
	"github.com/predictfund/engine/pkg/metrics"
)

// DefaultPipelineTimeout bounds one full snapshot computation.
const DefaultPipelineTimeout = 2 * time.Minute

// Pipeline computes leaderboard snapshots from ledger state.
type Pipeline struct {
	reader   ledger.Reader
	builder  *leaderboard.Builder
	profiles profile.Store

	lookback uint64
	workers  int
	timeout  time.Duration
}

// PipelineOption applies a configuration option to the Pipeline.
type PipelineOption func(*Pipeline)

// WithLookback overrides the discovery window.
func WithLookback(blocks uint64) PipelineOption {
	return func(p *Pipeline) {
		if blocks > 0 {
			p.lookback = blocks
		}
	}
}

// WithWorkers bounds the aggregation fan-out.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithTimeout bounds one full pipeline run.
func WithTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBuilder overrides the ranking builder.
func WithBuilder(b *leaderboard.Builder) PipelineOption {
	return func(p *Pipeline) {
		if b != nil {
			p.builder = b
		}
	}
}

// WithProfiles wires a display-name store; entries without a profile keep
// an empty display name and clients fall back to the address.
func WithProfiles(store profile.Store) PipelineOption {
	return func(p *Pipeline) {
		p.profiles = store
	}
}

// NewPipeline creates a Pipeline over the given ledger reader.
func NewPipeline(reader ledger.Reader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		reader:   reader,
		builder:  leaderboard.NewBuilder(),
		lookback: DefaultLookbackBlocks,
		workers:  DefaultAggregateWorkers,
		timeout:  DefaultPipelineTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run computes one snapshot: discover participants over the lookback window,
// aggregate each one's bets, rank the qualified set, decorate display names.
// Only a discovery failure fails the run; individual participants that
// cannot be read are dropped and the snapshot covers the rest.
func (p *Pipeline) Run(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	runID := uuid.NewString()
	start := time.Now()
	log := logger.Get().Named("pipeline")

	set, err := Discover(ctx, p.reader, p.lookback)
	if err != nil {
		metrics.RecordRefreshFailure()
		return model.Snapshot{}, err
	}

	aggs := AggregateAll(ctx, p.reader, set.Addresses(), p.workers)
	entries := p.builder.Build(aggs, 0)
	p.decorate(ctx, entries)
	summary := leaderboard.Summarize(entries)

	snap := model.Snapshot{
		Entries:              entries,
		QualifiedCount:       summary.QualifiedCount,
		TotalStakedQualified: summary.TotalStaked,
		ComputedAt:           time.Now(),
		RunID:                runID,
	}

	metrics.RecordRefresh()
	metrics.RecordRefreshDuration(float64(time.Since(start).Milliseconds()))
	log.Info(ctx, "snapshot computed",
		logger.String("run_id", runID),
		logger.Int("participants", set.Len()),
		logger.Int("qualified", snap.QualifiedCount),
		logger.Duration("took", time.Since(start)),
	)
	return snap, nil
}

func (p *Pipeline) decorate(ctx context.Context, entries []model.LeaderboardEntry) {
	if p.profiles == nil {
		return
	}
	for i := range entries {
		if name, ok := p.profiles.DisplayName(ctx, entries[i].Address); ok {
			entries[i].DisplayName = name
		}
	}
}
