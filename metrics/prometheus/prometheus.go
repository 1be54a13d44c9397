// Package prometheus provides a Prometheus metrics implementation for
// fetchcache. This package is optional and only imported when Prometheus
// metrics are needed.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sandrolain/fetchcache/metrics"
)

// Collector implements metrics.Collector for Prometheus
type Collector struct {
	storeRequests     *prometheus.CounterVec
	storeOpDuration   *prometheus.HistogramVec
	storeEntries      *prometheus.GaugeVec
	fetchRequests     *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	fetchResponseSize *prometheus.CounterVec
	sweepRuns         prometheus.Counter
	sweepRemoved      prometheus.Counter
}

// CollectorConfig provides configuration options for the Prometheus collector
type CollectorConfig struct {
	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Namespace for metrics (default: "fetchcache")
	Namespace string

	// Subsystem for metrics (optional)
	Subsystem string

	// ConstLabels are labels added to all metrics
	ConstLabels prometheus.Labels
}

// NewCollector creates a new Prometheus collector with default registry and configuration
func NewCollector() *Collector {
	return NewCollectorWithConfig(CollectorConfig{})
}

// NewCollectorWithRegistry creates a new Prometheus collector with a custom registry
func NewCollectorWithRegistry(reg prometheus.Registerer) *Collector {
	return NewCollectorWithConfig(CollectorConfig{
		Registry: reg,
	})
}

// NewCollectorWithConfig creates a new Prometheus collector with custom configuration
func NewCollectorWithConfig(config CollectorConfig) *Collector {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = "fetchcache"
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		storeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "store_requests_total",
				Help:        "Total number of store operations",
				ConstLabels: config.ConstLabels,
			},
			[]string{"operation", "store_backend", "result"},
		),
		storeOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "store_operation_duration_seconds",
				Help:        "Duration of store operations in seconds",
				Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
				ConstLabels: config.ConstLabels,
			},
			[]string{"operation", "store_backend"},
		),
		storeEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "store_entries_total",
				Help:        "Current number of entries in the store",
				ConstLabels: config.ConstLabels,
			},
			[]string{"store_backend"},
		),
		fetchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "fetch_requests_total",
				Help:        "Total number of fetches through the cache facade",
				ConstLabels: config.ConstLabels,
			},
			[]string{"method", "cache_status", "status_code"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "fetch_duration_seconds",
				Help:        "Duration of fetches in seconds",
				Buckets:     []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
				ConstLabels: config.ConstLabels,
			},
			[]string{"method", "cache_status"},
		),
		fetchResponseSize: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "fetch_response_size_bytes_total",
				Help:        "Total size of fetched responses in bytes",
				ConstLabels: config.ConstLabels,
			},
			[]string{"cache_status"},
		),
		sweepRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "sweep_runs_total",
				Help:        "Total number of completed expiry sweeps",
				ConstLabels: config.ConstLabels,
			},
		),
		sweepRemoved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "sweep_removed_entries_total",
				Help:        "Total number of entries removed by expiry sweeps",
				ConstLabels: config.ConstLabels,
			},
		),
	}
}

// RecordStoreOperation records a store operation
func (c *Collector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
	c.storeRequests.WithLabelValues(operation, backend, result).Inc()
	c.storeOpDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// RecordStoreEntries records current number of store entries
func (c *Collector) RecordStoreEntries(backend string, count int64) {
	c.storeEntries.WithLabelValues(backend).Set(float64(count))
}

// RecordFetch records a fetch through the cache facade
func (c *Collector) RecordFetch(method, cacheStatus string, statusCode int, duration time.Duration) {
	c.fetchRequests.WithLabelValues(method, cacheStatus, strconv.Itoa(statusCode)).Inc()
	c.fetchDuration.WithLabelValues(method, cacheStatus).Observe(duration.Seconds())
}

// RecordFetchResponseSize records fetched response size
func (c *Collector) RecordFetchResponseSize(cacheStatus string, sizeBytes int64) {
	c.fetchResponseSize.WithLabelValues(cacheStatus).Add(float64(sizeBytes))
}

// RecordSweep records a completed expiry sweep
func (c *Collector) RecordSweep(removed int, duration time.Duration) {
	c.sweepRuns.Inc()
	c.sweepRemoved.Add(float64(removed))
}

// Verify interface implementation at compile time
var _ metrics.Collector = (*Collector)(nil)
