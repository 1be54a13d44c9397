// Package metrics provides an interface for collecting fetchcache metrics.
// This package defines a generic interface that can be implemented by various
// metrics systems (Prometheus, OpenTelemetry, Datadog, etc.) without adding
// dependencies to the core fetchcache package.
package metrics

import (
	"time"
)

// Collector defines the interface for metrics collection.
// Implementations of this interface can collect metrics for various
// monitoring systems without requiring changes to the fetchcache core.
type Collector interface {
	// RecordStoreOperation records a store operation (get, set, delete, keys, clear)
	// Parameters:
	//   - operation: "get", "set", "delete", "keys", or "clear"
	//   - backend: store backend name (e.g., "memory", "freecache")
	//   - result: operation result (e.g., "hit", "miss", "success", "error")
	//   - duration: operation duration
	RecordStoreOperation(operation, backend, result string, duration time.Duration)

	// RecordStoreEntries records the current number of entries in the store
	// Parameters:
	//   - backend: store backend name
	//   - count: number of entries
	RecordStoreEntries(backend string, count int64)

	// RecordFetch records a fetch through the cache facade
	// Parameters:
	//   - method: HTTP method (GET, HEAD, etc.)
	//   - cacheStatus: "hit" or "miss"
	//   - statusCode: HTTP status code
	//   - duration: fetch duration
	RecordFetch(method, cacheStatus string, statusCode int, duration time.Duration)

	// RecordFetchResponseSize records the size of a fetched response
	// Parameters:
	//   - cacheStatus: "hit" or "miss"
	//   - sizeBytes: response size in bytes
	RecordFetchResponseSize(cacheStatus string, sizeBytes int64)

	// RecordSweep records a completed expiry sweep
	// Parameters:
	//   - removed: number of entries removed by the sweep
	//   - duration: sweep duration
	RecordSweep(removed int, duration time.Duration)
}

// NoOpCollector implements Collector with no-op operations.
// This is used as the default collector when metrics are not enabled,
// ensuring zero overhead for users who don't need metrics.
type NoOpCollector struct{}

// RecordStoreOperation does nothing (no-op implementation)
func (n *NoOpCollector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
}

// RecordStoreEntries does nothing (no-op implementation)
func (n *NoOpCollector) RecordStoreEntries(backend string, count int64) {}

// RecordFetch does nothing (no-op implementation)
func (n *NoOpCollector) RecordFetch(method, cacheStatus string, statusCode int, duration time.Duration) {
}

// RecordFetchResponseSize does nothing (no-op implementation)
func (n *NoOpCollector) RecordFetchResponseSize(cacheStatus string, sizeBytes int64) {}

// RecordSweep does nothing (no-op implementation)
func (n *NoOpCollector) RecordSweep(removed int, duration time.Duration) {}

// DefaultCollector is the default no-op collector used when metrics are not enabled
var DefaultCollector Collector = &NoOpCollector{}

// Verify that NoOpCollector implements Collector interface
var _ Collector = (*NoOpCollector)(nil)
