// Package test provides conformance helpers for fetchcache.Store
// implementations.
package test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sandrolain/fetchcache"
)

// Store exercises a fetchcache.Store implementation.
func Store(t *testing.T, store fetchcache.Store) {
	ctx := context.Background()
	key := "testKey"

	_, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("retrieved key before adding it")
	}

	val := []byte("some bytes")
	if err := store.Set(ctx, key, val); err != nil {
		t.Fatalf("error setting key: %v", err)
	}

	retVal, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if !ok {
		t.Fatal("could not retrieve an element we just added")
	}
	if !bytes.Equal(retVal, val) {
		t.Fatal("retrieved a different value than what we put in")
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("error listing keys: %v", err)
	}
	if !containsKey(keys, key) {
		t.Fatalf("keys %v do not contain %q", keys, key)
	}

	if err := store.Set(ctx, key, []byte("overwritten")); err != nil {
		t.Fatalf("error overwriting key: %v", err)
	}
	retVal, ok, err = store.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("error getting overwritten key: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(retVal, []byte("overwritten")) {
		t.Fatal("overwrite did not replace the stored value")
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("error deleting key: %v", err)
	}

	_, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("error getting key: %v", err)
	}
	if ok {
		t.Fatal("deleted key still present")
	}

	if err := store.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("error setting key: %v", err)
	}
	if err := store.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("error setting key: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("error clearing store: %v", err)
	}
	keys, err = store.Keys(ctx)
	if err != nil {
		t.Fatalf("error listing keys after clear: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("store not empty after clear: %v", keys)
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
