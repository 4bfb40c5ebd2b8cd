// Package engine implements the leaderboard computation pipeline:
// participant discovery from contract logs, per-participant aggregation
// of bet records, and assembly of the ranked snapshot.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/domain/addrset"
	"github.com/predictfund/engine/pkg/logger"
	"github.com/predictfund/engine/pkg/metrics"
)

// DefaultLookbackBlocks is the discovery window behind the current head.
const DefaultLookbackBlocks = 10_000

// Discover scans the contract's logs over the lookback window ending at the
// current head and collects the distinct addresses found in the first indexed
// topic of each log. The window is clamped at genesis. On any ledger failure
// it returns an empty set and the error; callers keep serving the previous
// snapshot.
func Discover(ctx context.Context, reader ledger.Reader, lookback uint64) (*addrset.Set, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDiscoveryDuration(float64(time.Since(start).Milliseconds()))
	}()

	head, err := reader.BlockNumber(ctx)
	if err != nil {
		return addrset.New(), fmt.Errorf("%w: head: %w", ErrDiscovery, err)
	}

	from := uint64(0)
	if head > lookback {
		from = head - lookback
	}

	logs, err := reader.FilterLogs(ctx, from, head)
	if err != nil {
		return addrset.New(), fmt.Errorf("%w: logs [%d,%d]: %w", ErrDiscovery, from, head, err)
	}

	set := addrset.New()
	for _, l := range logs {
		// Topics[0] is the event signature; the participant address sits
		// in the first indexed parameter.
		if len(l.Topics) < 2 {
			continue
		}
		set.Add(ledger.TopicAddress(l.Topics[1]))
	}

	logger.Get().Debug(ctx, "participant discovery complete",
		logger.Uint64("from_block", from),
		logger.Uint64("to_block", head),
		logger.Int("logs", len(logs)),
		logger.Int("participants", set.Len()),
	)
	metrics.UpdateParticipantsDiscovered(set.Len())
	return set, nil
}
