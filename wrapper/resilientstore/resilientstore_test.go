package resilientstore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/fetchcache"
	"github.com/sandrolain/fetchcache/test"
)

func TestStoreConformance(t *testing.T) {
	store, err := New(Config{Store: fetchcache.NewMemoryStore()})
	require.NoError(t, err)
	test.Store(t, store)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

type flakyStore struct {
	fetchcache.Store
	failures atomic.Int64
	calls    atomic.Int64
}

var errFlaky = errors.New("transient backend error")

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return nil, false, errFlaky
	}
	return f.Store.Get(ctx, key)
}

func TestErrorsDegradeToMiss(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: fetchcache.NewMemoryStore()}
	require.NoError(t, flaky.Store.Set(ctx, "key", []byte("value")))
	flaky.failures.Store(1000)

	store, err := New(Config{Store: flaky})
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestErrorsPropagateWhenConfigured(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: fetchcache.NewMemoryStore()}
	flaky.failures.Store(1000)

	store, err := New(Config{Store: flaky, PropagateErrors: true})
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "key")
	assert.ErrorIs(t, err, errFlaky)
}

func TestRetryAbsorbsTransientErrors(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: fetchcache.NewMemoryStore()}
	require.NoError(t, flaky.Store.Set(ctx, "key", []byte("value")))
	flaky.failures.Store(2)

	retry := retrypolicy.NewBuilder[any]().
		WithMaxRetries(3).
		WithDelay(time.Millisecond).
		Build()
	store, err := New(Config{Store: flaky, RetryPolicy: retry})
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), value)
	assert.GreaterOrEqual(t, flaky.calls.Load(), int64(3))
}

type slowStore struct {
	fetchcache.Store
	delay time.Duration
}

func (s *slowStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return s.Store.Get(ctx, key)
}

func TestTimeoutDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	slow := &slowStore{Store: fetchcache.NewMemoryStore(), delay: 500 * time.Millisecond}
	require.NoError(t, slow.Store.Set(ctx, "key", []byte("value")))

	store, err := New(Config{Store: slow, OperationTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, ok, err := store.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}
