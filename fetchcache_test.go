package fetchcache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newClient returns a client with the background sweeper parked on a long
// interval so tests control sweeping explicitly.
func newClient(t *testing.T, store Store, opts ...Option) *Client {
	t.Helper()
	c, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// makeSnapshot builds a stored response snapshot with the given headers.
func makeSnapshot(t *testing.T, headers http.Header) []byte {
	t.Helper()
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(strings.NewReader("body")),
		ContentLength: 4,
	}
	data, err := encodeResponse(resp)
	if err != nil {
		t.Fatalf("encoding snapshot: %v", err)
	}
	return data
}

func TestFetchRoundTrip(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	store := NewMemoryStore()
	c := newClient(t, store)
	ctx := context.Background()

	first, err := c.Fetch(ctx, server.URL, nil)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if got := readBody(t, first); got != "payload" {
		t.Fatalf("first body = %q", got)
	}
	if store.Len() != 1 {
		t.Fatalf("store entries = %d, want 1", store.Len())
	}

	second, err := c.Fetch(ctx, server.URL, nil)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second.Header.Get(XFromCache) != "1" {
		t.Error("second fetch should be served from cache")
	}
	if second.StatusCode != first.StatusCode {
		t.Errorf("status = %d, want %d", second.StatusCode, first.StatusCode)
	}
	if second.Header.Get("Content-Type") != "text/plain" {
		t.Errorf("cached headers differ: Content-Type = %q", second.Header.Get("Content-Type"))
	}
	if got := readBody(t, second); got != "payload" {
		t.Errorf("second body = %q", got)
	}
	if hits.Load() != 1 {
		t.Errorf("transport invoked %d times, want 1", hits.Load())
	}
}

func TestFetchCachedCopiesAreIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = w.Write([]byte("shared"))
	}))
	defer server.Close()

	c := newClient(t, nil)
	ctx := context.Background()

	warm, err := c.Fetch(ctx, server.URL, nil)
	if err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	readBody(t, warm)

	a, err := c.Fetch(ctx, server.URL, nil)
	if err != nil {
		t.Fatalf("fetch a: %v", err)
	}
	b, err := c.Fetch(ctx, server.URL, nil)
	if err != nil {
		t.Fatalf("fetch b: %v", err)
	}

	// Both hits must be fully consumable on their own.
	if got := readBody(t, a); got != "shared" {
		t.Errorf("body a = %q", got)
	}
	if got := readBody(t, b); got != "shared" {
		t.Errorf("body b = %q", got)
	}
}

func TestFetchNoStoreIsNotCached(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte("fresh"))
	}))
	defer server.Close()

	store := NewMemoryStore()
	c := newClient(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := c.Fetch(ctx, server.URL, nil)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		readBody(t, resp)
	}

	if hits.Load() != 2 {
		t.Errorf("transport invoked %d times, want 2", hits.Load())
	}
	if store.Len() != 0 {
		t.Errorf("store entries = %d, want 0", store.Len())
	}
}

func TestFetchExpiredEntryGoesBackToNetwork(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Cacheable per Cache-Control, but already expired: the explicit
		// Date is an hour old and max-age is one second.
		w.Header().Set("Cache-Control", "max-age=1")
		w.Header().Set("Date", httpDate(time.Now().Add(-time.Hour)))
		_, _ = w.Write([]byte("stale"))
	}))
	defer server.Close()

	store := NewMemoryStore()
	c := newClient(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := c.Fetch(ctx, server.URL, nil)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if resp.Header.Get(XFromCache) != "" {
			t.Errorf("fetch %d unexpectedly served from cache", i)
		}
		readBody(t, resp)
	}

	if hits.Load() != 2 {
		t.Errorf("transport invoked %d times, want 2", hits.Load())
	}
}

func TestFetchEmptyResource(t *testing.T) {
	c := newClient(t, nil)
	if _, err := c.Fetch(context.Background(), "", nil); !errors.Is(err, ErrNoResource) {
		t.Errorf("err = %v, want ErrNoResource", err)
	}
}

func TestFetchTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	store := NewMemoryStore()
	c := newClient(t, store, WithTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, transportErr
	})))

	_, err := c.Fetch(context.Background(), "http://example.com/x", nil)
	if !errors.Is(err, transportErr) {
		t.Fatalf("err = %v, want the transport error unchanged", err)
	}
	if store.Len() != 0 {
		t.Errorf("store entries = %d, want 0 after transport failure", store.Len())
	}
}

func TestFetchConcurrentSameFingerprint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = w.Write([]byte("parallel"))
	}))
	defer server.Close()

	store := NewMemoryStore()
	c := newClient(t, store)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			resp, err := c.Fetch(context.Background(), server.URL, nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if string(data) != "parallel" {
				return errors.New("unexpected body: " + string(data))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if store.Len() != 1 {
		t.Errorf("store entries = %d, want exactly 1 (last write wins)", store.Len())
	}
}

func TestCleanupPrunesOnlyExpiredEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := newClient(t, store)

	expired := http.Header{}
	expired.Set("Cache-Control", "max-age=1")
	expired.Set("Date", httpDate(time.Now().Add(-time.Hour)))
	if err := store.Set(ctx, "expired", makeSnapshot(t, expired)); err != nil {
		t.Fatal(err)
	}

	fresh := http.Header{}
	fresh.Set("Cache-Control", "max-age=3600")
	fresh.Set("Date", httpDate(time.Now()))
	if err := store.Set(ctx, "fresh", makeSnapshot(t, fresh)); err != nil {
		t.Fatal(err)
	}

	noSignals := http.Header{}
	if err := store.Set(ctx, "no-signals", makeSnapshot(t, noSignals)); err != nil {
		t.Fatal(err)
	}

	if removed := c.Cleanup(ctx); removed != 1 {
		t.Errorf("sweep removed %d entries, want 1", removed)
	}

	if _, ok, _ := store.Get(ctx, "expired"); ok {
		t.Error("expired entry survived the sweep")
	}
	if _, ok, _ := store.Get(ctx, "fresh"); !ok {
		t.Error("fresh entry was pruned")
	}
	if _, ok, _ := store.Get(ctx, "no-signals"); !ok {
		t.Error("entry without expiration information was pruned")
	}

	// Idempotence: sweeping an already-pruned store removes nothing.
	if removed := c.Cleanup(ctx); removed != 0 {
		t.Errorf("second sweep removed %d entries, want 0", removed)
	}
}

func TestBackgroundSweeper(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	expired := http.Header{}
	expired.Set("Expires", httpDate(time.Now().Add(-time.Hour)))
	if err := store.Set(ctx, "expired", makeSnapshot(t, expired)); err != nil {
		t.Fatal(err)
	}

	newClient(t, store, WithCleanupInterval(5*time.Millisecond))

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("background sweeper did not prune the expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetCleanupInterval(t *testing.T) {
	c := newClient(t, nil)

	if got := c.CleanupInterval(); got != DefaultCleanupInterval {
		t.Fatalf("initial interval = %v, want %v", got, DefaultCleanupInterval)
	}

	for _, invalid := range []time.Duration{0, -time.Second, time.Microsecond} {
		if err := c.SetCleanupInterval(invalid); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("SetCleanupInterval(%v) err = %v, want ErrInvalidInterval", invalid, err)
		}
		if got := c.CleanupInterval(); got != DefaultCleanupInterval {
			t.Errorf("rejected interval %v still changed the schedule to %v", invalid, got)
		}
	}

	if err := c.SetCleanupInterval(time.Minute); err != nil {
		t.Fatalf("SetCleanupInterval: %v", err)
	}
	if got := c.CleanupInterval(); got != time.Minute {
		t.Errorf("interval = %v, want 1m", got)
	}
}

func TestClearAllCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := newClient(t, store)

	fresh := http.Header{}
	fresh.Set("Cache-Control", "max-age=3600")
	fresh.Set("Date", httpDate(time.Now()))
	if err := store.Set(ctx, "a", makeSnapshot(t, fresh)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "b", makeSnapshot(t, fresh)); err != nil {
		t.Fatal(err)
	}

	if err := c.ClearAllCache(ctx); err != nil {
		t.Fatalf("ClearAllCache: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store entries = %d, want 0", store.Len())
	}
}

func TestClearCacheNotImplemented(t *testing.T) {
	c := newClient(t, nil)
	err := c.ClearCache(context.Background(), "http://example.com/x", nil)
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
}

func TestFetchStoreFailureDegradesToMiss(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newClient(t, failingStore{})

	for i := 0; i < 2; i++ {
		resp, err := c.Fetch(context.Background(), server.URL, nil)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		readBody(t, resp)
	}

	// Every fetch falls through to the network, and none of them fails.
	if hits.Load() != 2 {
		t.Errorf("transport invoked %d times, want 2", hits.Load())
	}
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}
func (failingStore) Set(context.Context, string, []byte) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error      { return errStoreDown }
func (failingStore) Keys(context.Context) ([]string, error)    { return nil, errStoreDown }
func (failingStore) Clear(context.Context) error               { return errStoreDown }
