package fetchcache

import (
	"context"
	"testing"
)

const benchmarkKey = "benchmark-key"

func BenchmarkMemoryStoreGet(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := make([]byte, 1024) // 1KB value
	if err := store.Set(ctx, benchmarkKey, value); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := store.Get(ctx, benchmarkKey); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStoreSet(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Set(ctx, benchmarkKey, value); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStoreParallelGet(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := make([]byte, 1024)

	for i := 0; i < 26; i++ {
		key := string(rune('a' + i))
		if err := store.Set(ctx, key, value); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := string(rune('a' + i%26))
			if _, _, err := store.Get(ctx, key); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}

// Benchmark with a typical serialized HTTP response size (~2KB of status
// line, headers and a small body).
func BenchmarkMemoryStoreSetSnapshot(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := make([]byte, 2048)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := string(rune('a' + i%100))
		if err := store.Set(ctx, key, value); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark mixed operations
func BenchmarkMemoryStoreParallelMixed(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := make([]byte, 1024)

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := string(rune('a' + i%100))
			switch i % 3 {
			case 0:
				if err := store.Set(ctx, key, value); err != nil {
					b.Fatal(err)
				}
			case 1:
				if _, _, err := store.Get(ctx, key); err != nil {
					b.Fatal(err)
				}
			case 2:
				if err := store.Delete(ctx, key); err != nil {
					b.Fatal(err)
				}
			}
			i++
		}
	})
}
