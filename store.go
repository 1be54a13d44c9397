package fetchcache

import (
	"context"
	"sync"
)

// A Store is used by the Client to keep response snapshots, indexed by
// request fingerprint.
//
// Implementations must be safe for concurrent use: the Client reads and
// writes from in-flight fetches while the background sweeper enumerates
// and deletes on its own schedule.
type Store interface {
	// Get returns the []byte snapshot stored for key and a bool set to
	// true if an entry is present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the []byte snapshot of a response against a key,
	// overwriting any previous entry.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the value associated with the key.
	Delete(ctx context.Context, key string) error
	// Keys returns the fingerprints of all stored entries. The sweeper
	// uses it to enumerate candidates for eviction.
	Keys(ctx context.Context) ([]string, error)
	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// MemoryStore is an implementation of Store that keeps snapshots in an
// in-memory map. It is the default backend and lives exactly as long as
// the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore returns a new Store that keeps entries in an in-memory map.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string][]byte{}}
}

// Get returns a copy of the snapshot stored for key. Returning a copy keeps
// the stored bytes independent from whatever the caller does with them.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	value, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set saves a copy of value to the store with key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mu.Lock()
	s.items[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes key from the store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Keys returns a snapshot of all keys currently in the store.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	return keys, nil
}

// Clear resets the store to empty.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.items = map[string][]byte{}
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries currently in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
