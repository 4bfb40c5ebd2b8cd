// Package ledger provides read-only access to the prediction-market contract.
//
// The engine only consumes the query surface: event logs in a block range,
// the current head, and the getUserBets/getBet view functions. The write
// path (placing bets, claiming, resolving) belongs to the wallet-connected
// client and is never called from here.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/predictfund/engine/internal/domain/model"
)

// Log is one contract log entry; only topics are consumed by discovery.
type Log struct {
	Topics      []common.Hash
	BlockNumber uint64
}

// Reader is the boundary to the external ledger. Every call suspends on I/O
// and honors ctx for cancellation and deadlines.
type Reader interface {
	// BlockNumber returns the current head height.
	BlockNumber(ctx context.Context) (uint64, error)

	// FilterLogs returns the contract's logs in [fromBlock, toBlock].
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64) ([]Log, error)

	// UserBets returns the bet identifiers owned by address.
	UserBets(ctx context.Context, address string) ([]*big.Int, error)

	// Bet returns one bet record by identifier.
	Bet(ctx context.Context, id *big.Int) (model.BetRecord, error)
}

// TopicAddress extracts the address packed into an indexed topic
// (low 20 bytes) in normalized lower-case form.
func TopicAddress(topic common.Hash) string {
	return model.NormalizeAddress(common.BytesToAddress(topic.Bytes()).Hex())
}
