// Package types contains the JSON shapes served by the HTTP API.
package types

import (
	"time"

	"github.com/predictfund/engine/internal/domain/model"
)

// Entry represents one leaderboard row.
type Entry struct {
	Rank            int     `json:"rank"`
	Address         string  `json:"address"`
	DisplayName     string  `json:"display_name,omitempty"`
	ReputationScore int     `json:"reputation_score"`
	WinRate         float64 `json:"win_rate"`
	PredictionCount int     `json:"prediction_count"`
	TotalStaked     string  `json:"total_staked"` // smallest ledger unit, decimal string
	TotalWon        string  `json:"total_won"`    // smallest ledger unit, decimal string
}

// Leaderboard is the response for GET /leaderboard. Stale indicates the
// entries come from an expired snapshot that is still the best available data.
type Leaderboard struct {
	Entries    []Entry   `json:"entries"`
	Stale      bool      `json:"stale"`
	ComputedAt time.Time `json:"computed_at"`
}

// Rank is the response for GET /rank/{address}.
type Rank struct {
	Entry      Entry     `json:"entry"`
	Stale      bool      `json:"stale"`
	ComputedAt time.Time `json:"computed_at"`
}

// Stats backs the dashboard overview cards.
type Stats struct {
	TopPredictor     *Entry    `json:"top_predictor,omitempty"`
	QualifiedCount   int       `json:"qualified_count"`
	TotalStakedWhole float64   `json:"total_staked"`
	Stale            bool      `json:"stale"`
	ComputedAt       time.Time `json:"computed_at"`
}

// FromEntry converts a domain leaderboard entry to its API shape.
func FromEntry(e model.LeaderboardEntry) Entry {
	return Entry{
		Rank:            e.Rank,
		Address:         e.Address,
		DisplayName:     e.DisplayName,
		ReputationScore: e.Score,
		WinRate:         e.WinRate(),
		PredictionCount: e.Predictions,
		TotalStaked:     e.TotalStaked.String(),
		TotalWon:        e.TotalWon.String(),
	}
}

// FromEntries converts a slice of domain entries.
func FromEntries(entries []model.LeaderboardEntry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}
