// Package multistore provides a multi-tiered fetchcache.Store that cascades
// through several backends with automatic fallback and promotion. This enables
// caching strategies with different performance and persistence
// characteristics at each tier.
package multistore

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandrolain/fetchcache"
)

// MultiStore implements a multi-tiered storage strategy where tiers are
// ordered from fastest/smallest (first) to slowest/largest (last). On reads,
// it searches each tier in order and promotes found snapshots to faster
// tiers. On writes, it stores to all tiers. This lets hot entries naturally
// migrate to faster backends while keeping the slower tiers authoritative.
//
// Example use case:
//   - Tier 1: fetchcache.MemoryStore (fast, volatile)
//   - Tier 2: freecache (bounded memory, LRU-evicted)
type MultiStore struct {
	tiers []fetchcache.Store
}

// New creates a MultiStore with the specified tiers, ordered from
// fastest/smallest to slowest/largest. At least one tier must be provided,
// and all tiers must be non-nil and unique.
func New(tiers ...fetchcache.Store) (*MultiStore, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one tier is required")
	}

	seen := make(map[fetchcache.Store]bool)
	for _, tier := range tiers {
		if tier == nil {
			return nil, fmt.Errorf("tier cannot be nil")
		}
		if seen[tier] {
			return nil, fmt.Errorf("duplicate tier")
		}
		seen[tier] = true
	}

	return &MultiStore{tiers: tiers}, nil
}

// Get returns the snapshot for the given key. It searches each tier in
// order, starting with the fastest. When a snapshot is found in a slower
// tier it is promoted (written) to all faster tiers for subsequent reads.
//
// Promotion errors are ignored; the snapshot was already found.
func (m *MultiStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range m.tiers {
		value, ok, err := tier.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			_ = m.promote(ctx, key, value, i) //nolint:errcheck // promotion is best-effort
			return value, true, nil
		}
	}
	return nil, false, nil
}

// Set stores the snapshot in all tiers. This keeps every level consistent
// while letting each tier apply its own eviction policy independently.
func (m *MultiStore) Set(ctx context.Context, key string, value []byte) error {
	for _, tier := range m.tiers {
		if err := tier.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the snapshot from all tiers to maintain consistency.
func (m *MultiStore) Delete(ctx context.Context, key string) error {
	for _, tier := range m.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the union of the keys of all tiers, deduplicated and sorted.
// A faster tier can have evicted an entry that a slower tier still holds, so
// no single tier is authoritative for enumeration.
func (m *MultiStore) Keys(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, tier := range m.tiers {
		keys, err := tier.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			seen[key] = true
		}
	}

	merged := make([]string, 0, len(seen))
	for key := range seen {
		merged = append(merged, key)
	}
	sort.Strings(merged)
	return merged, nil
}

// Clear removes all entries from all tiers.
func (m *MultiStore) Clear(ctx context.Context) error {
	for _, tier := range m.tiers {
		if err := tier.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiStore) promote(ctx context.Context, key string, value []byte, foundAt int) error {
	for i := 0; i < foundAt; i++ {
		if err := m.tiers[i].Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
