// Package fetchcache provides an in-process cache for HTTP fetch calls,
// serving repeated requests from memory while their responses are still
// fresh under standard HTTP caching rules.
package fetchcache

import (
	"strings"
)

// Cache-Control directives recognized by the cacheability policy.
const (
	cacheControlNoCache = "no-cache"
	cacheControlNoStore = "no-store"
	cacheControlMaxAge  = "max-age"
)

// Directive extracts the directive name from a raw Cache-Control header
// value. It returns the directive's value for a name=value directive, the
// directive name itself for a bare flag directive (e.g. "no-cache"), and
// ok=false when the directive is not present.
//
// A match must be a whole token: bounded on the left by the start of the
// header or a comma separator (an optional single space after the comma is
// tolerated), and on the right by '=', a comma, or the end of the header.
// A substring occurrence inside a longer token (e.g. "max-age" inside
// "max-age-extended") does not count.
//
// When the text after an occurrence is neither '=', a comma, nor the end of
// the header, the scan stops and reports the directive as absent, even if a
// later well-formed occurrence exists: the first directive-shaped occurrence
// wins. This is intentional, observable behavior; see the tests.
//
// Returned values are not trimmed of whitespace.
func Directive(headerValue, name string) (string, bool) {
	if headerValue == "" || name == "" {
		return "", false
	}

	pos := 0
	for {
		i := strings.Index(headerValue[pos:], name)
		if i < 0 {
			return "", false
		}
		start := pos + i
		end := start + len(name)

		// Right boundary first: anything other than '=', a separator or
		// the end of the header is a definitive non-match that concludes
		// the search.
		var next byte
		if end < len(headerValue) {
			next = headerValue[end]
			if next != '=' && next != ',' {
				return "", false
			}
		}

		if !boundedLeft(headerValue, start) {
			pos = end
			continue
		}

		if next != '=' {
			// Bare flag directive; report the name itself.
			return name, true
		}

		value := headerValue[end+1:]
		if j := strings.IndexByte(value, ','); j >= 0 {
			value = value[:j]
		}
		return value, true
	}
}

// boundedLeft reports whether the character before position start is a valid
// directive boundary: the header start, a comma, or a comma followed by a
// single space.
func boundedLeft(headerValue string, start int) bool {
	if start == 0 {
		return true
	}
	if headerValue[start-1] == ',' {
		return true
	}
	if headerValue[start-1] == ' ' && start > 1 && headerValue[start-2] == ',' {
		return true
	}
	return false
}
