package fetchcache

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Option is a function that configures a Client.
// Use the With* functions to create Options.
type Option func(*Client) error

// WithTransport sets the underlying http.RoundTripper used to make
// requests. If nil, http.DefaultTransport is used.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.transport = rt
		return nil
	}
}

// WithLogger sets the slog logger used for diagnostics.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithMarkCachedResponses configures whether responses served from the
// cache get the X-From-Cache header.
// Default: true
func WithMarkCachedResponses(mark bool) Option {
	return func(c *Client) error {
		c.markCachedResponses = mark
		return nil
	}
}

// WithCleanupInterval sets the initial background sweep interval.
// Intervals below MinCleanupInterval are rejected.
// Default: DefaultCleanupInterval
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Client) error {
		if interval < MinCleanupInterval {
			return fmt.Errorf("%w: %v (minimum %v)", ErrInvalidInterval, interval, MinCleanupInterval)
		}
		c.sweeper.interval = interval
		return nil
	}
}
