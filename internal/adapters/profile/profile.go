// Package profile resolves display names for participant addresses.
//
// Profiles live client-side in the original product; the engine only needs
// a lookup to decorate leaderboard entries, so the store is a read interface
// with a static implementation fed from configuration.
package profile

import (
	"context"

	"github.com/predictfund/engine/internal/domain/model"
)

// Store resolves a display name for an address. The second return reports
// whether a profile exists; callers fall back to the raw address otherwise.
type Store interface {
	DisplayName(ctx context.Context, address string) (string, bool)
}

// StaticStore serves display names from a fixed map. Lookups are
// case-insensitive on the address.
type StaticStore struct {
	names map[string]string
}

// NewStaticStore builds a store from an address-to-name map.
func NewStaticStore(names map[string]string) *StaticStore {
	s := &StaticStore{names: make(map[string]string, len(names))}
	for addr, name := range names {
		if name == "" {
			continue
		}
		s.names[model.NormalizeAddress(addr)] = name
	}
	return s
}

// DisplayName implements Store.
func (s *StaticStore) DisplayName(_ context.Context, address string) (string, bool) {
	name, ok := s.names[model.NormalizeAddress(address)]
	return name, ok
}
