package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/pkg/logger"
	"github.com/predictfund/engine/pkg/metrics"
)

// DefaultAggregateWorkers bounds the aggregation fan-out when no worker
// count is configured.
const DefaultAggregateWorkers = 8

// Aggregate folds every readable bet of one address into an aggregate.
// A failing bet read is skipped and the rest of the address's records still
// count; only a failing bet-list read fails the whole address.
func Aggregate(ctx context.Context, reader ledger.Reader, address string) (model.ParticipantAggregate, error) {
	agg := model.NewParticipantAggregate(address)

	ids, err := reader.UserBets(ctx, address)
	if err != nil {
		return agg, fmt.Errorf("%w: %s: %w", ErrAggregate, agg.Address, err)
	}

	for _, id := range ids {
		rec, err := reader.Bet(ctx, id)
		if err != nil {
			logger.Get().Warn(ctx, "skipping unreadable bet record",
				logger.String("address", agg.Address),
				logger.String("bet_id", id.String()),
				logger.Error(err),
			)
			metrics.RecordRecordSkipped()
			continue
		}
		agg.Add(rec)
	}
	return agg, nil
}

// aggregateJob carries one address through the worker pool; idx preserves
// the discovery order, which decides ties in the final ranking.
type aggregateJob struct {
	idx  int
	addr string
}

// AggregateAll fans the discovered addresses out over a bounded worker pool.
// Addresses whose aggregation fails, or that end up with zero predictions,
// are dropped; the survivors come back in discovery order.
func AggregateAll(ctx context.Context, reader ledger.Reader, addresses []string, workers int) []model.ParticipantAggregate {
	if len(addresses) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultAggregateWorkers
	}
	if workers > len(addresses) {
		workers = len(addresses)
	}
	metrics.UpdateAggregateWorkers(workers)

	jobCh := make(chan aggregateJob)
	results := make([]*model.ParticipantAggregate, len(addresses))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				agg, err := Aggregate(ctx, reader, job.addr)
				if err != nil {
					logger.Get().Warn(ctx, "skipping participant",
						logger.String("address", job.addr),
						logger.Error(err),
					)
					metrics.RecordAddressSkipped()
					continue
				}
				results[job.idx] = &agg
			}
		}()
	}

feed:
	for i, addr := range addresses {
		select {
		case jobCh <- aggregateJob{idx: i, addr: addr}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	aggs := make([]model.ParticipantAggregate, 0, len(addresses))
	for _, agg := range results {
		if agg == nil || agg.Predictions == 0 {
			continue
		}
		aggs = append(aggs, *agg)
	}
	return aggs
}
