package compresscache

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/andybalholm/brotli"
	"github.com/sandrolain/fetchcache"
)

// BrotliConfig holds the configuration for brotli compression.
type BrotliConfig struct {
	// Store is the underlying store backend (required).
	Store fetchcache.Store

	// Quality is the compression quality (0 to 11).
	// Default: brotli.DefaultCompression (6)
	Quality int

	// Logger is used for compression diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// NewBrotli creates a compressing Store using brotli.
func NewBrotli(config BrotliConfig) (*Store, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config.Quality == 0 {
		config.Quality = brotli.DefaultCompression
	}
	if config.Quality < brotli.BestSpeed || config.Quality > brotli.BestCompression {
		return nil, fmt.Errorf("invalid brotli quality: %d", config.Quality)
	}

	quality := config.Quality
	compress := func(data []byte) ([]byte, error) {
		return brotliCompress(data, quality)
	}
	return newStore(config.Store, Brotli, compress, config.Logger), nil
}

func brotliCompress(data []byte, quality int) ([]byte, error) {
	var buf bytes.Buffer

	w := brotli.NewWriterLevel(&buf, quality)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("brotli write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli close failed: %w", err)
	}

	return buf.Bytes(), nil
}

func brotliDecompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("brotli read failed: %w", err)
	}
	return decompressed, nil
}
