// Package model contains domain models passed between layers.
package model

import (
	"math/big"
	"strings"
	"time"
)

// weiPerWholeUnit converts the smallest ledger unit to whole currency units.
var weiPerWholeUnit = new(big.Float).SetFloat64(1e18)

// BetRecord represents one wager read from the ledger. Records are immutable
// once read; the engine never mutates contract state.
type BetRecord struct {
	ID           *big.Int // bet identifier
	MarketID     *big.Int // market/position identifier
	Bettor       string   // owning address, lower-case canonical form
	Amount       *big.Int // staked amount, smallest ledger unit
	PredictedYes bool     // binary prediction direction
	Claimed      bool     // claimed/settled flag
	Reward       *big.Int // zero until settled and claimed
}

// Won reports whether the record counts as a correct prediction.
// The ledger does not flag win/loss directly; a claimed bet with a
// non-zero reward is the closest observable approximation.
func (b BetRecord) Won() bool {
	return b.Claimed && b.Reward != nil && b.Reward.Sign() > 0
}

// ParticipantAggregate holds per-participant betting totals derived from
// that participant's bet records within a single pipeline run.
type ParticipantAggregate struct {
	Address            string
	TotalStaked        *big.Int
	TotalWon           *big.Int
	Predictions        int
	CorrectPredictions int
}

// NewParticipantAggregate returns an empty aggregate for addr.
func NewParticipantAggregate(addr string) ParticipantAggregate {
	return ParticipantAggregate{
		Address:     NormalizeAddress(addr),
		TotalStaked: new(big.Int),
		TotalWon:    new(big.Int),
	}
}

// Add folds one bet record into the aggregate.
func (a *ParticipantAggregate) Add(b BetRecord) {
	a.Predictions++
	if b.Amount != nil {
		a.TotalStaked.Add(a.TotalStaked, b.Amount)
	}
	if b.Claimed && b.Reward != nil {
		a.TotalWon.Add(a.TotalWon, b.Reward)
	}
	if b.Won() {
		a.CorrectPredictions++
	}
}

// WinRate returns the win rate in percent, zero when there are no predictions.
func (a ParticipantAggregate) WinRate() float64 {
	if a.Predictions == 0 {
		return 0
	}
	return float64(a.CorrectPredictions) / float64(a.Predictions) * 100
}

// StakedWholeUnits converts the total stake from the smallest ledger unit
// to whole currency units for scoring and display.
func (a ParticipantAggregate) StakedWholeUnits() float64 {
	return WeiToWhole(a.TotalStaked)
}

// LeaderboardEntry is a ranked, scored participant. Rank is 1-based and
// dense; it is only assigned to qualified entries.
type LeaderboardEntry struct {
	ParticipantAggregate

	DisplayName string
	Score       int
	Rank        int
}

// Snapshot is the output of one full pipeline run: every qualified entry,
// sorted and ranked, plus the derived stats served to dashboard cards.
type Snapshot struct {
	Entries              []LeaderboardEntry
	QualifiedCount       int
	TotalStakedQualified *big.Int
	ComputedAt           time.Time
	RunID                string
}

// Top returns the highest-ranked entry, or false when the snapshot is empty.
func (s Snapshot) Top() (LeaderboardEntry, bool) {
	if len(s.Entries) == 0 {
		return LeaderboardEntry{}, false
	}
	return s.Entries[0], true
}

// NormalizeAddress lower-cases an address into its canonical identity form.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// WeiToWhole converts an amount in the smallest ledger unit to whole units.
func WeiToWhole(amount *big.Int) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	whole, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), weiPerWholeUnit).Float64()
	return whole
}
