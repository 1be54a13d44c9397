package prometheus

import (
	"context"
	"time"

	"github.com/sandrolain/fetchcache"
	"github.com/sandrolain/fetchcache/metrics"
)

// Metric result constants.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultSuccess = "success"
	resultError   = "error"
)

// InstrumentedStore wraps a fetchcache.Store with Prometheus metrics
type InstrumentedStore struct {
	underlying fetchcache.Store
	collector  metrics.Collector
	backend    string // backend name: "memory", "freecache", etc.
}

// NewInstrumentedStore creates a new instrumented store that records metrics
// for all store operations.
//
// Parameters:
//   - store: the underlying store implementation to wrap
//   - backend: the name of the store backend (e.g., "memory", "freecache")
//   - collector: the metrics collector (if nil, uses metrics.DefaultCollector)
//
// Example:
//
//	collector := prometheus.NewCollector()
//	store := prometheus.NewInstrumentedStore(
//	    fetchcache.NewMemoryStore(),
//	    "memory",
//	    collector,
//	)
func NewInstrumentedStore(store fetchcache.Store, backend string, collector metrics.Collector) *InstrumentedStore {
	if collector == nil {
		collector = metrics.DefaultCollector
	}

	return &InstrumentedStore{
		underlying: store,
		collector:  collector,
		backend:    backend,
	}
}

// Get retrieves a snapshot from the store with metrics recording.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.underlying.Get(ctx, key)
	duration := time.Since(start)

	result := resultMiss
	if err != nil {
		result = resultError
	} else if ok {
		result = resultHit
	}

	s.collector.RecordStoreOperation("get", s.backend, result, duration)

	return value, ok, err
}

// Set stores a snapshot with metrics recording.
func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.underlying.Set(ctx, key, value)
	duration := time.Since(start)

	s.collector.RecordStoreOperation("set", s.backend, resultFor(err), duration)

	return err
}

// Delete removes a snapshot with metrics recording.
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.underlying.Delete(ctx, key)
	duration := time.Since(start)

	s.collector.RecordStoreOperation("delete", s.backend, resultFor(err), duration)

	return err
}

// Keys enumerates stored keys with metrics recording. On success the current
// entry count gauge is updated as well.
func (s *InstrumentedStore) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := s.underlying.Keys(ctx)
	duration := time.Since(start)

	s.collector.RecordStoreOperation("keys", s.backend, resultFor(err), duration)
	if err == nil {
		s.collector.RecordStoreEntries(s.backend, int64(len(keys)))
	}

	return keys, err
}

// Clear removes all entries with metrics recording.
func (s *InstrumentedStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.underlying.Clear(ctx)
	duration := time.Since(start)

	s.collector.RecordStoreOperation("clear", s.backend, resultFor(err), duration)
	if err == nil {
		s.collector.RecordStoreEntries(s.backend, 0)
	}

	return err
}

func resultFor(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Verify interface implementation at compile time
var _ fetchcache.Store = (*InstrumentedStore)(nil)
