package fetchcache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// timer is an interface for time-related operations, allowing for testing.
type timer interface {
	now() time.Time
}

type realClock struct{}

func (realClock) now() time.Time {
	return time.Now()
}

var clock timer = realClock{}

// parseHTTPDate parses an HTTP date header value. It accepts the formats
// allowed by RFC 7231 (RFC1123 and the obsolete forms).
func parseHTTPDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isExpired reports whether a stored response with the given headers is
// expired relative to ref.
//
// Two independent checks apply, and either one expires the entry:
//
//   - Cache-Control + Date: when both headers are present, the entry
//     expires at Date plus the max-age directive value in seconds (zero
//     when the directive is missing or unparseable).
//   - Expires: when present and parseable, the entry expires at that time.
//
// Expiration uses strict less-than: an entry expiring exactly at ref is
// still valid for that instant. Absent or unparseable expiration
// information never expires an entry.
func isExpired(headers http.Header, ref time.Time) bool {
	if cc := headers.Get("Cache-Control"); cc != "" {
		if date, ok := parseHTTPDate(headers.Get("Date")); ok {
			expireTime := date.Add(time.Duration(maxAgeSeconds(cc)) * time.Second)
			if expireTime.Before(ref) {
				return true
			}
		}
	}

	if expires, ok := parseHTTPDate(headers.Get("Expires")); ok {
		if expires.Before(ref) {
			return true
		}
	}

	return false
}

// shouldCache reports whether a response with the given headers is eligible
// for storage.
//
// A response carrying a Cache-Control header is cacheable unless it says
// no-cache or no-store, or sets max-age=0. Without Cache-Control, an
// Expires header strictly after ref makes it cacheable. Without either
// header there is no caching signal and the response is not stored.
func shouldCache(headers http.Header, ref time.Time) bool {
	if cc := headers.Get("Cache-Control"); cc != "" {
		if _, ok := Directive(cc, cacheControlNoCache); ok {
			return false
		}
		if _, ok := Directive(cc, cacheControlNoStore); ok {
			return false
		}
		if secs, ok := maxAge(cc); ok && secs == 0 {
			return false
		}
		return true
	}

	if expires, ok := parseHTTPDate(headers.Get("Expires")); ok {
		return expires.After(ref)
	}

	return false
}

// maxAge returns the parsed max-age directive value in seconds, with
// ok=false when the directive is missing or not a usable number.
func maxAge(cc string) (int, bool) {
	value, ok := Directive(cc, cacheControlMaxAge)
	if !ok {
		return 0, false
	}
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

// maxAgeSeconds is maxAge defaulting to zero, the lifetime used by the
// expiration check when the directive carries no usable value.
func maxAgeSeconds(cc string) int {
	secs, _ := maxAge(cc)
	return secs
}
