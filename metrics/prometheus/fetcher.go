package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/fetchcache"
	"github.com/sandrolain/fetchcache/metrics"
)

// InstrumentedFetcher wraps a fetchcache.Client with Prometheus metrics
type InstrumentedFetcher struct {
	underlying *fetchcache.Client
	collector  metrics.Collector
}

// NewInstrumentedFetcher creates a new instrumented fetcher that records
// metrics for every fetch through the facade.
//
// The wrapped client must be created with
// fetchcache.WithMarkCachedResponses(true) for hit/miss attribution to work;
// without the marker header every fetch is counted as a miss.
//
// Parameters:
//   - client: the underlying fetchcache.Client to wrap
//   - collector: the metrics collector (if nil, uses metrics.DefaultCollector)
//
// Example:
//
//	collector := prometheus.NewCollector()
//	store := prometheus.NewInstrumentedStore(fetchcache.NewMemoryStore(), "memory", collector)
//	client, err := fetchcache.New(store, fetchcache.WithMarkCachedResponses(true))
//	fetcher := prometheus.NewInstrumentedFetcher(client, collector)
func NewInstrumentedFetcher(client *fetchcache.Client, collector metrics.Collector) *InstrumentedFetcher {
	if collector == nil {
		collector = metrics.DefaultCollector
	}

	return &InstrumentedFetcher{
		underlying: client,
		collector:  collector,
	}
}

// Fetch retrieves a resource through the wrapped client with metrics recording.
func (f *InstrumentedFetcher) Fetch(ctx context.Context, resource string, opts *fetchcache.Options) (*http.Response, error) {
	start := time.Now()
	resp, err := f.underlying.Fetch(ctx, resource, opts)
	duration := time.Since(start)

	if err != nil {
		return resp, err
	}

	cacheStatus := resultMiss
	if resp.Header.Get(fetchcache.XFromCache) == "1" {
		cacheStatus = resultHit
	}

	method := http.MethodGet
	if opts != nil && opts.Method != "" {
		method = strings.ToUpper(opts.Method)
	}

	f.collector.RecordFetch(method, cacheStatus, resp.StatusCode, duration)

	// Record response size if Content-Length is available
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			f.collector.RecordFetchResponseSize(cacheStatus, size)
		}
	}

	return resp, nil
}

// Cleanup runs one expiry sweep through the wrapped client with metrics
// recording, and reports how many entries it removed.
func (f *InstrumentedFetcher) Cleanup(ctx context.Context) int {
	start := time.Now()
	removed := f.underlying.Cleanup(ctx)
	f.collector.RecordSweep(removed, time.Since(start))
	return removed
}
