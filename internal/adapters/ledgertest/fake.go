// Package ledgertest provides an in-memory ledger.Reader for tests.
package ledgertest

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/predictfund/engine/internal/adapters/ledger"
	"github.com/predictfund/engine/internal/domain/model"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("injected ledger failure")

// Fake is an in-memory Reader. Bets are registered per address and surfaced
// through the same log/view-function shape the real contract exposes, so the
// discovery and aggregation paths run unchanged against it.
type Fake struct {
	mu sync.Mutex

	head   uint64
	nextID int64

	order []string                     // log emission order
	bets  map[string][]model.BetRecord // by normalized address
	byID  map[string]model.BetRecord   // by bet identifier

	failHead     bool
	failLogs     bool
	failUserBets map[string]bool
	failBets     map[string]bool

	calls map[string]int
}

// New creates an empty fake positioned at head height.
func New(head uint64) *Fake {
	return &Fake{
		head:         head,
		nextID:       1,
		bets:         make(map[string][]model.BetRecord),
		byID:         make(map[string]model.BetRecord),
		failUserBets: make(map[string]bool),
		failBets:     make(map[string]bool),
		calls:        make(map[string]int),
	}
}

// AddBet registers a bet for address and returns its identifier.
func (f *Fake) AddBet(address string, amountWei int64, claimed bool, rewardWei int64) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()

	addr := model.NormalizeAddress(address)
	id := big.NewInt(f.nextID)
	f.nextID++

	rec := model.BetRecord{
		ID:       id,
		MarketID: big.NewInt(1),
		Bettor:   addr,
		Amount:   big.NewInt(amountWei),
		Claimed:  claimed,
		Reward:   big.NewInt(rewardWei),
	}
	if _, seen := f.bets[addr]; !seen {
		f.order = append(f.order, addr)
	}
	f.bets[addr] = append(f.bets[addr], rec)
	f.byID[id.String()] = rec
	return id
}

// FailHead makes BlockNumber return an error.
func (f *Fake) FailHead() { f.mu.Lock(); f.failHead = true; f.mu.Unlock() }

// FailLogs makes FilterLogs return an error.
func (f *Fake) FailLogs() { f.mu.Lock(); f.failLogs = true; f.mu.Unlock() }

// FailUserBets makes UserBets fail for one address.
func (f *Fake) FailUserBets(address string) {
	f.mu.Lock()
	f.failUserBets[model.NormalizeAddress(address)] = true
	f.mu.Unlock()
}

// FailBet makes Bet fail for one identifier.
func (f *Fake) FailBet(id *big.Int) {
	f.mu.Lock()
	f.failBets[id.String()] = true
	f.mu.Unlock()
}

// Calls returns how often the named method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// SetHead moves the head height.
func (f *Fake) SetHead(head uint64) { f.mu.Lock(); f.head = head; f.mu.Unlock() }

// BlockNumber implements ledger.Reader.
func (f *Fake) BlockNumber(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["blockNumber"]++
	if f.failHead {
		return 0, ErrInjected
	}
	return f.head, nil
}

// FilterLogs implements ledger.Reader. Every registered bet emits one log
// whose second topic carries the bettor address, matching the contract's
// event layout.
func (f *Fake) FilterLogs(_ context.Context, fromBlock, toBlock uint64) ([]ledger.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["getLogs"]++
	if f.failLogs {
		return nil, ErrInjected
	}
	if fromBlock > toBlock {
		return nil, nil
	}

	var logs []ledger.Log
	block := fromBlock
	for _, addr := range f.order {
		for range f.bets[addr] {
			logs = append(logs, ledger.Log{
				Topics: []common.Hash{
					common.HexToHash("0x01"), // event signature
					common.BytesToHash(common.HexToAddress(addr).Bytes()),
				},
				BlockNumber: block,
			})
			if block < toBlock {
				block++
			}
		}
	}
	return logs, nil
}

// UserBets implements ledger.Reader.
func (f *Fake) UserBets(_ context.Context, address string) ([]*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["getUserBets"]++

	addr := model.NormalizeAddress(address)
	if f.failUserBets[addr] {
		return nil, ErrInjected
	}

	ids := make([]*big.Int, 0, len(f.bets[addr]))
	for _, rec := range f.bets[addr] {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// Bet implements ledger.Reader.
func (f *Fake) Bet(_ context.Context, id *big.Int) (model.BetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["getBet"]++

	if f.failBets[id.String()] {
		return model.BetRecord{}, ErrInjected
	}
	rec, ok := f.byID[id.String()]
	if !ok {
		return model.BetRecord{}, ErrInjected
	}
	return rec, nil
}
