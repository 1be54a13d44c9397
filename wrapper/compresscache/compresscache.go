// Package compresscache provides a Store wrapper that transparently
// compresses cached response snapshots to reduce memory usage.
// Supports multiple compression algorithms: gzip, brotli, and snappy.
package compresscache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sandrolain/fetchcache"
)

// Algorithm represents the compression algorithm to use.
type Algorithm int

const (
	// Gzip uses gzip compression (good balance of compression and speed).
	Gzip Algorithm = iota
	// Brotli uses brotli compression (best compression ratio, slower).
	Brotli
	// Snappy uses snappy compression (fastest, lower compression ratio).
	Snappy
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	case Snappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// Stats holds compression statistics.
type Stats struct {
	CompressedBytes   int64   // Total bytes after compression
	UncompressedBytes int64   // Total bytes before compression
	CompressedCount   int64   // Number of compressed entries
	UncompressedCount int64   // Number of entries stored uncompressed
	CompressionRatio  float64 // Compression ratio (0.0-1.0, lower is better)
	SavingsPercent    float64 // Space savings percentage
}

// Store wraps a fetchcache.Store with transparent compression.
//
// Entries are stored with a one-byte marker identifying the algorithm
// (0 means uncompressed), so reads decompress with whatever algorithm an
// entry was written with, regardless of the store's current configuration.
type Store struct {
	store     fetchcache.Store
	algorithm Algorithm
	compress  func([]byte) ([]byte, error)
	logger    *slog.Logger

	compressedBytes   atomic.Int64
	uncompressedBytes atomic.Int64
	compressedCount   atomic.Int64
	uncompressedCount atomic.Int64
}

func newStore(underlying fetchcache.Store, algorithm Algorithm, compress func([]byte) ([]byte, error), logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		store:     underlying,
		algorithm: algorithm,
		compress:  compress,
		logger:    logger,
	}
}

// Get retrieves and decompresses a snapshot from the underlying store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(data) == 0 {
		return data, true, nil
	}

	marker := data[0]
	if marker == 0 {
		return data[1:], true, nil
	}

	decompressed, err := decompressAlgorithm(Algorithm(marker-1), data[1:])
	if err != nil {
		s.logger.Warn("decompression failed",
			"key", key,
			"algorithm", Algorithm(marker-1).String(),
			"error", err)
		return nil, false, err
	}
	return decompressed, true, nil
}

// Set compresses and stores a snapshot. If compression fails, the value is
// stored uncompressed so cache behavior is unaffected.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	compressed, err := s.compress(value)
	if err != nil {
		s.logger.Warn("compression failed, storing uncompressed",
			"key", key,
			"algorithm", s.algorithm.String(),
			"error", err)
		s.uncompressedCount.Add(1)
		s.uncompressedBytes.Add(int64(len(value)))
		return s.store.Set(ctx, key, withMarker(0, value))
	}

	s.compressedCount.Add(1)
	s.compressedBytes.Add(int64(len(compressed)))
	s.uncompressedBytes.Add(int64(len(value)))
	return s.store.Set(ctx, key, withMarker(byte(s.algorithm)+1, compressed))
}

// Delete removes a snapshot from the underlying store.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// Keys returns the keys of the underlying store.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.store.Keys(ctx)
}

// Clear removes all entries from the underlying store.
func (s *Store) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Algorithm returns the algorithm used for newly stored entries.
func (s *Store) Algorithm() Algorithm {
	return s.algorithm
}

// Stats returns compression statistics.
func (s *Store) Stats() Stats {
	compressed := s.compressedBytes.Load()
	uncompressed := s.uncompressedBytes.Load()

	var ratio, savings float64
	if uncompressed > 0 {
		ratio = float64(compressed) / float64(uncompressed)
		savings = (1.0 - ratio) * 100
	}

	return Stats{
		CompressedBytes:   compressed,
		UncompressedBytes: uncompressed,
		CompressedCount:   s.compressedCount.Load(),
		UncompressedCount: s.uncompressedCount.Load(),
		CompressionRatio:  ratio,
		SavingsPercent:    savings,
	}
}

func withMarker(marker byte, value []byte) []byte {
	data := make([]byte, len(value)+1)
	data[0] = marker
	copy(data[1:], value)
	return data
}

func decompressAlgorithm(algorithm Algorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case Gzip:
		return gzipDecompress(data)
	case Brotli:
		return brotliDecompress(data)
	case Snappy:
		return snappyDecompress(data)
	default:
		return nil, fmt.Errorf("unsupported decompression algorithm: %v", algorithm)
	}
}
