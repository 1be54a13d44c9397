package fetchcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// XFromCache is the header added to responses that are served from the
	// cache instead of the network.
	XFromCache = "X-From-Cache"
)

var (
	// ErrNoResource is returned by Fetch when no resource is given.
	ErrNoResource = errors.New("fetchcache: no resource given")

	// ErrNotImplemented is returned by operations that are declared in the
	// public contract but intentionally not implemented yet.
	ErrNotImplemented = errors.New("fetchcache: not implemented")
)

// Client is the entry point of the cache. It checks the store before going
// to the network, populates the store with cacheable responses, and owns
// the background sweeper that prunes expired entries.
//
// Each Client is fully independent: it holds its own store and sweep
// schedule, so multiple instances can coexist without interference.
type Client struct {
	transport           http.RoundTripper
	store               Store
	markCachedResponses bool
	sweeper             sweeper
	logger              *slog.Logger
}

// New returns a Client using the provided Store. A nil store gets an
// in-memory MemoryStore. The background sweeper starts immediately with
// DefaultCleanupInterval unless configured otherwise; call Close to stop it.
func New(store Store, opts ...Option) (*Client, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Client{
		store:               store,
		markCachedResponses: true,
	}
	c.sweeper.interval = DefaultCleanupInterval
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.sweeper.start(c.sweep, c.sweeper.interval)
	return c, nil
}

// Store returns the Store backing this client.
func (c *Client) Store() Store {
	return c.store
}

// Close stops the background sweeper. The store and Fetch remain usable.
func (c *Client) Close() {
	c.sweeper.stop()
}

// Fetch performs an HTTP fetch for resource with the given option set.
//
// If the store holds a fresh response for the same (resource, options)
// fingerprint, an independent copy of it is returned without touching the
// network. Otherwise the request goes to the transport and its response is
// returned to the caller directly; if the response headers permit caching,
// the store is populated as a side effect once the body has been fully
// consumed. Population failures are logged and never fail the fetch.
//
// Transport errors propagate unchanged; nothing is cached for a failed
// request.
func (c *Client) Fetch(ctx context.Context, resource string, opts *Options) (*http.Response, error) {
	if resource == "" {
		return nil, ErrNoResource
	}

	key := Fingerprint(resource, opts)

	if resp, ok := c.cachedResponse(ctx, key); ok {
		if c.markCachedResponses {
			resp.Header.Set(XFromCache, "1")
		}
		return resp, nil
	}

	req, err := newRequest(ctx, resource, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}

	if shouldCache(resp.Header, clock.now()) {
		c.populateOnEOF(resp, key)
	}

	return resp, nil
}

// Cleanup runs one sweep over the store, deleting every expired entry, and
// reports how many entries it removed. It is the manual counterpart of the
// background sweeper and is idempotent: sweeping an already-pruned store
// removes nothing.
func (c *Client) Cleanup(ctx context.Context) int {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.log().Warn("sweep: listing store keys failed", "error", err)
		return 0
	}

	ref := clock.now()
	removed := 0
	for _, key := range keys {
		snapshot, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.log().Warn("sweep: reading entry failed, skipping", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		headers, err := storedHeaders(snapshot)
		if err != nil {
			c.log().Warn("sweep: undecodable entry, skipping", "key", key, "error", err)
			continue
		}
		if !isExpired(headers, ref) {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			c.log().Warn("sweep: deleting expired entry failed", "key", key, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// SetCleanupInterval replaces the background sweep schedule. The previous
// timer is cancelled before the new one starts, so there is never more than
// one active schedule. Intervals below MinCleanupInterval are rejected and
// leave the running schedule untouched.
func (c *Client) SetCleanupInterval(interval time.Duration) error {
	if err := c.sweeper.reschedule(c.sweep, interval); err != nil {
		c.log().Warn("rejecting cleanup interval", "interval", interval, "error", err)
		return err
	}
	return nil
}

// CleanupInterval returns the current background sweep interval.
func (c *Client) CleanupInterval() time.Duration {
	return c.sweeper.currentInterval()
}

// ClearAllCache removes every entry from the store.
func (c *Client) ClearAllCache(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// ClearCache removes the entries matching a (resource, options) pair.
//
// Not implemented: callers get ErrNotImplemented rather than a silent
// no-op. Use ClearAllCache, or delete a single Fingerprint directly on the
// Store, until partial clearing lands.
func (c *Client) ClearCache(ctx context.Context, resource string, opts *Options) error {
	_ = ctx
	_ = Fingerprint(resource, opts)
	return ErrNotImplemented
}

// cachedResponse returns an independent copy of the stored response for
// key, when one exists and is still fresh. Expired entries are treated as
// absent and lazily deleted. Store or decode errors degrade to a miss.
func (c *Client) cachedResponse(ctx context.Context, key string) (*http.Response, bool) {
	snapshot, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log().Warn("store read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	resp, err := decodeResponse(snapshot)
	if err != nil {
		c.log().Warn("undecodable cache entry, treating as miss", "key", key, "error", err)
		return nil, false
	}

	if isExpired(resp.Header, clock.now()) {
		resp.Body.Close()
		if err := c.store.Delete(ctx, key); err != nil {
			c.log().Debug("deleting stale entry failed", "key", key, "error", err)
		}
		return nil, false
	}

	return resp, true
}

// roundTrip sends req on the configured transport, or http.DefaultTransport
// when none is set.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	transport := c.transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}

// populateOnEOF arranges for resp to be snapshotted into the store once its
// body has been read to EOF. The caller keeps streaming the body as usual;
// a body that is never fully consumed (cancellation, early close) simply
// never populates the store.
//
// Population runs detached from the request context: by the time the body
// hits EOF the caller's context may already be cancelled, and a cancelled
// fetch must not turn into a failed store write.
func (c *Client) populateOnEOF(resp *http.Response, key string) {
	resp.Body = &cachingReadCloser{
		R: resp.Body,
		OnEOF: func(r io.Reader) {
			snapshot := *resp
			snapshot.Body = io.NopCloser(r)
			data, err := encodeResponse(&snapshot)
			if err != nil {
				c.log().Warn("encoding response for cache failed", "key", key, "error", err)
				return
			}
			if err := c.store.Set(context.Background(), key, data); err != nil {
				c.log().Warn("cache population failed", "key", key, "error", err)
			}
		},
	}
}

// sweep is the store pass invoked by the background sweeper.
func (c *Client) sweep() {
	c.Cleanup(context.Background())
}

// log returns the configured logger, or slog.Default() when none is set.
// Safe on a nil Client.
func (c *Client) log() *slog.Logger {
	if c != nil && c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// newRequest builds the outgoing request for a (resource, options) pair.
func newRequest(ctx context.Context, resource string, opts *Options) (*http.Request, error) {
	method := http.MethodGet
	var body io.Reader
	if opts != nil {
		if opts.Method != "" {
			method = opts.Method
		}
		if len(opts.Body) > 0 {
			body = bytes.NewReader(opts.Body)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, resource, body)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		for name, values := range opts.Header {
			req.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return req, nil
}

// cachingReadCloser is a wrapper around ReadCloser R that calls OnEOF
// with a full copy of the content read from R when EOF is reached.
type cachingReadCloser struct {
	// Underlying ReadCloser.
	R io.ReadCloser
	// OnEOF is called at most once, with a copy of the content of R, when
	// EOF is reached.
	OnEOF func(io.Reader)

	buf   bytes.Buffer // stores a copy of the content of R
	fired bool
}

// Read reads the next len(p) bytes from R. When R is drained, OnEOF fires
// once with a reader over everything read so far.
func (r *cachingReadCloser) Read(p []byte) (n int, err error) {
	n, err = r.R.Read(p)
	r.buf.Write(p[:n])
	if err == io.EOF && !r.fired {
		r.fired = true
		r.OnEOF(bytes.NewReader(r.buf.Bytes()))
	}
	return n, err
}

func (r *cachingReadCloser) Close() error {
	return r.R.Close()
}
