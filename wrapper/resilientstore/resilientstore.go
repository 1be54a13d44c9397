// Package resilientstore provides a fetchcache.Store wrapper that bounds
// and degrades store operations using failsafe-go policies.
//
// The cache layer must never let a misbehaving backend fail or stall a
// fetch: store errors and timeouts degrade to "treat as miss" / "skip",
// with a diagnostic log line. An optional retry policy can absorb
// transient backend errors before the degradation kicks in.
package resilientstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"

	"github.com/sandrolain/fetchcache"
)

// DefaultOperationTimeout bounds a single store operation when no other
// timeout is configured.
const DefaultOperationTimeout = time.Second

// Config holds the configuration for creating a resilient store.
type Config struct {
	// Store is the underlying store implementation to wrap (required).
	Store fetchcache.Store

	// OperationTimeout bounds every store operation.
	// Default: DefaultOperationTimeout
	OperationTimeout time.Duration

	// RetryPolicy optionally retries failed operations before they are
	// degraded. If nil, operations are not retried.
	// Example:
	//   retrypolicy.NewBuilder[any]().
	//     WithMaxRetries(2).
	//     WithBackoff(10*time.Millisecond, 100*time.Millisecond).
	//     Build()
	RetryPolicy retrypolicy.RetryPolicy[any]

	// PropagateErrors disables degradation: operation errors are returned
	// to the caller instead of being translated into misses and no-ops.
	// Default: false (degrade, per the cache error model)
	PropagateErrors bool

	// Logger is used for degradation diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// ResilientStore wraps a fetchcache.Store with failsafe policies.
type ResilientStore struct {
	store     fetchcache.Store
	policies  []failsafe.Policy[any]
	propagate bool
	logger    *slog.Logger
}

// New creates a new ResilientStore from config.
func New(config Config) (*ResilientStore, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config.OperationTimeout <= 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	// Retry first (innermost), timeout outermost so it caps the retries too.
	var policies []failsafe.Policy[any]
	if config.RetryPolicy != nil {
		policies = append(policies, config.RetryPolicy)
	}
	policies = append([]failsafe.Policy[any]{timeout.New[any](config.OperationTimeout)}, policies...)

	return &ResilientStore{
		store:     config.Store,
		policies:  policies,
		propagate: config.PropagateErrors,
		logger:    config.Logger,
	}, nil
}

type getResult struct {
	value []byte
	ok    bool
}

// Get retrieves a snapshot. Backend errors and timeouts degrade to a miss
// unless PropagateErrors is set.
func (s *ResilientStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := failsafe.With(s.policies...).WithContext(ctx).Get(func() (any, error) {
		value, ok, err := s.store.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	})
	if err != nil {
		s.logger.Warn("store get degraded to miss", "key", key, "error", err)
		if s.propagate {
			return nil, false, err
		}
		return nil, false, nil
	}
	res := result.(getResult)
	return res.value, res.ok, nil
}

// Set stores a snapshot. Backend errors and timeouts are swallowed after
// logging unless PropagateErrors is set.
func (s *ResilientStore) Set(ctx context.Context, key string, value []byte) error {
	return s.run(ctx, "set", key, func() error {
		return s.store.Set(ctx, key, value)
	})
}

// Delete removes a snapshot.
func (s *ResilientStore) Delete(ctx context.Context, key string) error {
	return s.run(ctx, "delete", key, func() error {
		return s.store.Delete(ctx, key)
	})
}

// Keys returns the keys of all stored entries. On degradation it reports
// no keys, which makes a sweep skip the pass rather than fail.
func (s *ResilientStore) Keys(ctx context.Context) ([]string, error) {
	result, err := failsafe.With(s.policies...).WithContext(ctx).Get(func() (any, error) {
		keys, err := s.store.Keys(ctx)
		return keys, err
	})
	if err != nil {
		s.logger.Warn("store keys degraded to empty", "error", err)
		if s.propagate {
			return nil, err
		}
		return nil, nil
	}
	keys, _ := result.([]string)
	return keys, nil
}

// Clear removes all entries.
func (s *ResilientStore) Clear(ctx context.Context) error {
	return s.run(ctx, "clear", "", func() error {
		return s.store.Clear(ctx)
	})
}

func (s *ResilientStore) run(ctx context.Context, op, key string, fn func() error) error {
	err := failsafe.With(s.policies...).WithContext(ctx).Run(fn)
	if err != nil {
		s.logger.Warn("store operation degraded to no-op", "op", op, "key", key, "error", err)
		if s.propagate {
			return err
		}
	}
	return nil
}
