package compresscache

import (
	"fmt"
	"log/slog"

	"github.com/golang/snappy"
	"github.com/sandrolain/fetchcache"
)

// SnappyConfig holds the configuration for snappy compression.
type SnappyConfig struct {
	// Store is the underlying store backend (required).
	Store fetchcache.Store

	// Logger is used for compression diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// NewSnappy creates a compressing Store using snappy.
func NewSnappy(config SnappyConfig) (*Store, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return newStore(config.Store, Snappy, snappyCompress, config.Logger), nil
}

func snappyCompress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func snappyDecompress(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode failed: %w", err)
	}
	return decompressed, nil
}
