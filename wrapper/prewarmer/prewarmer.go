// Package prewarmer provides cache prewarming for fetchcache. It proactively
// fetches known resources through a fetchcache.Client before real traffic
// arrives, reducing first-request latency for critical resources.
package prewarmer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/fetchcache"
)

// DefaultTimeout bounds a single prewarm fetch when no other timeout is
// configured.
const DefaultTimeout = 30 * time.Second

// Prewarmer proactively loads resources into a fetchcache client's cache.
type Prewarmer struct {
	client  *fetchcache.Client
	header  http.Header
	timeout time.Duration
}

// Config holds configuration options for the Prewarmer.
type Config struct {
	// Client is the fetchcache client whose cache is warmed. Required.
	Client *fetchcache.Client

	// Header is attached to every prewarm fetch. Note that request headers
	// are part of the cache fingerprint, so prewarmed entries are only hits
	// for requests carrying the same headers.
	Header http.Header

	// Timeout bounds each individual fetch.
	// Default: DefaultTimeout
	Timeout time.Duration
}

// Result represents the outcome of warming a single resource.
type Result struct {
	// Resource is the resource identifier that was fetched.
	Resource string

	// Success indicates whether the fetch succeeded with a 2xx/3xx status.
	Success bool

	// StatusCode is the HTTP status code returned.
	StatusCode int

	// Duration is how long the fetch took.
	Duration time.Duration

	// Size is the response body size in bytes.
	Size int64

	// Error is the error if the fetch failed.
	Error error

	// FromCache indicates the resource was already cached.
	FromCache bool
}

// Stats contains aggregate statistics from a prewarm run.
type Stats struct {
	// Total is the total number of resources processed.
	Total int

	// Successful is the number of successful fetches.
	Successful int

	// Failed is the number of failed fetches.
	Failed int

	// FromCache is the number of resources that were already cached.
	FromCache int

	// TotalDuration is the elapsed time for the whole run.
	TotalDuration time.Duration

	// TotalBytes is the total bytes downloaded.
	TotalBytes int64

	// Errors contains all errors encountered.
	Errors []error
}

// ProgressCallback is called after each resource is processed. With
// concurrent warming it is called from multiple goroutines and must be
// thread-safe.
type ProgressCallback func(result *Result, completed, total int)

// New creates a new Prewarmer with the given configuration.
func New(config Config) (*Prewarmer, error) {
	if config.Client == nil {
		return nil, errors.New("prewarmer: client is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Prewarmer{
		client:  config.Client,
		header:  config.Header,
		timeout: timeout,
	}, nil
}

// Prewarm fetches the given resources sequentially and returns aggregate
// statistics about the run.
func (p *Prewarmer) Prewarm(ctx context.Context, resources []string) (*Stats, error) {
	return p.PrewarmConcurrentWithCallback(ctx, resources, 1, nil)
}

// PrewarmConcurrent fetches resources with controlled concurrency. The
// workers parameter caps the number of in-flight fetches.
func (p *Prewarmer) PrewarmConcurrent(ctx context.Context, resources []string, workers int) (*Stats, error) {
	return p.PrewarmConcurrentWithCallback(ctx, resources, workers, nil)
}

// PrewarmConcurrentWithCallback fetches resources concurrently and calls the
// callback after each one. Fetch failures are recorded in the stats rather
// than aborting the run; only context cancellation stops it early.
func (p *Prewarmer) PrewarmConcurrentWithCallback(ctx context.Context, resources []string, workers int, callback ProgressCallback) (*Stats, error) {
	if workers <= 0 {
		workers = 1
	}

	stats := &Stats{
		Total: len(resources),
	}
	startTime := time.Now()

	var mu sync.Mutex
	completed := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, resource := range resources {
		resource := resource
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			result := p.fetch(groupCtx, resource)

			mu.Lock()
			if result.Success {
				stats.Successful++
				stats.TotalBytes += result.Size
				if result.FromCache {
					stats.FromCache++
				}
			} else {
				stats.Failed++
				if result.Error != nil {
					stats.Errors = append(stats.Errors, result.Error)
				}
			}
			completed++
			done := completed
			mu.Unlock()

			if callback != nil {
				callback(result, done, len(resources))
			}
			return nil
		})
	}

	err := group.Wait()
	stats.TotalDuration = time.Since(startTime)
	return stats, err
}

// fetch warms a single resource and reports the outcome. The body is read
// fully so the deferred cache population fires.
func (p *Prewarmer) fetch(ctx context.Context, resource string) *Result {
	result := &Result{
		Resource: resource,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()

	var opts *fetchcache.Options
	if len(p.header) > 0 {
		opts = &fetchcache.Options{Header: p.header}
	}

	resp, err := p.client.Fetch(ctx, resource, opts)
	if err != nil {
		result.Error = fmt.Errorf("fetch failed: %w", err)
		result.Duration = time.Since(startTime)
		return result
	}
	defer resp.Body.Close() //nolint:errcheck // best effort cleanup

	size, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		result.Error = fmt.Errorf("failed to read body: %w", err)
		result.Duration = time.Since(startTime)
		return result
	}

	result.Duration = time.Since(startTime)
	result.StatusCode = resp.StatusCode
	result.Size = size
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 400
	result.FromCache = resp.Header.Get(fetchcache.XFromCache) == "1"

	if !result.Success {
		result.Error = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return result
}
