// Package freecache provides a high-performance, zero-GC overhead
// implementation of fetchcache.Store using github.com/coocood/freecache as
// the underlying storage.
//
// This backend suits applications caching very many entries with minimal GC
// overhead. Memory is bounded: when the cache is full, freecache evicts the
// least recently used entries on its own, independently of the fetchcache
// sweeper.
//
// Example usage:
//
//	store := freecache.New(100 * 1024 * 1024) // 100MB cache
//	client, err := fetchcache.New(store)
package freecache

import (
	"context"

	"github.com/coocood/freecache"
)

// Store is an implementation of fetchcache.Store backed by freecache.
type Store struct {
	cache *freecache.Cache
}

// New creates a new Store with the specified size in bytes.
// The cache size will be set to 512KB at minimum.
//
// For large cache sizes, you may want to call debug.SetGCPercent()
// with a lower value to reduce GC overhead.
func New(size int) *Store {
	return &Store{
		cache: freecache.NewCache(size),
	}
}

// Get returns the stored snapshot and true if present, false if not found.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		// freecache reports a plain not-found error; treat it as a miss.
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores the snapshot against key. Entries have no freecache-level
// expiry; the fetchcache sweeper is responsible for pruning them.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.cache.Set([]byte(key), value, 0)
}

// Delete removes the entry with the given key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

// Keys returns the keys of all stored entries, via the freecache iterator.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	var keys []string
	it := s.cache.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		keys = append(keys, string(entry.Key))
	}
	return keys, nil
}

// Clear removes all entries.
func (s *Store) Clear(_ context.Context) error {
	s.cache.Clear()
	return nil
}

// EntryCount returns the number of entries currently in the cache.
func (s *Store) EntryCount() int64 {
	return s.cache.EntryCount()
}

// HitRate returns the ratio of cache hits to total lookups.
func (s *Store) HitRate() float64 {
	return s.cache.HitRate()
}

// EvacuateCount returns the number of times entries were evicted because
// the cache was full.
func (s *Store) EvacuateCount() int64 {
	return s.cache.EvacuateCount()
}

// ResetStatistics resets all statistics counters.
func (s *Store) ResetStatistics() {
	s.cache.ResetStatistics()
}
