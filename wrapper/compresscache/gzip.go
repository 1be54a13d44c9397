package compresscache

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"

	"github.com/sandrolain/fetchcache"
)

// GzipConfig holds the configuration for gzip compression.
type GzipConfig struct {
	// Store is the underlying store backend (required).
	Store fetchcache.Store

	// Level is the compression level (-2 to 9).
	// Default: gzip.DefaultCompression (-1)
	Level int

	// Logger is used for compression diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// NewGzip creates a compressing Store using gzip.
func NewGzip(config GzipConfig) (*Store, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config.Level == 0 {
		config.Level = gzip.DefaultCompression
	}
	if config.Level < gzip.HuffmanOnly || config.Level > gzip.BestCompression {
		return nil, fmt.Errorf("invalid gzip compression level: %d", config.Level)
	}

	level := config.Level
	compress := func(data []byte) ([]byte, error) {
		return gzipCompress(data, level)
	}
	return newStore(config.Store, Gzip, compress, config.Logger), nil
}

func gzipCompress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer creation failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}

	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader creation failed: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	return decompressed, nil
}
