// Package addrset tracks unique participant addresses in discovery order.
package addrset

import (
	"github.com/predictfund/engine/internal/domain/model"
)

// Set is an insertion-ordered set of normalized addresses. Order is
// preserved because it is the tie-break for equal leaderboard scores.
// A Set belongs to a single pipeline run and is not safe for concurrent use.
type Set struct {
	seen  map[string]struct{}
	order []string
}

// New creates an empty Set.
func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add normalizes addr and inserts it. Returns true if it was newly added.
func (s *Set) Add(addr string) bool {
	norm := model.NormalizeAddress(addr)
	if norm == "" {
		return false
	}
	if _, ok := s.seen[norm]; ok {
		return false
	}
	s.seen[norm] = struct{}{}
	s.order = append(s.order, norm)
	return true
}

// Contains reports whether addr is in the set.
func (s *Set) Contains(addr string) bool {
	_, ok := s.seen[model.NormalizeAddress(addr)]
	return ok
}

// Addresses returns the addresses in insertion order.
func (s *Set) Addresses() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of unique addresses.
func (s *Set) Len() int {
	return len(s.order)
}
