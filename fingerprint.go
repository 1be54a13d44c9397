package fetchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
)

// Options is the option set of a fetch call: the request method, headers
// and body to use alongside the resource URL. A nil Options is equivalent
// to a plain GET with no headers and no body.
type Options struct {
	// Method is the HTTP method. Defaults to GET when empty.
	Method string
	// Header holds the request headers.
	Header http.Header
	// Body is the request body, if any.
	Body []byte
}

// Fingerprint returns the deterministic cache key for a (resource, options)
// pair. The option set is canonicalized before serialization (method
// upper-cased, headers sorted by canonical name, body digested) so two
// semantically identical option sets always map to the same key regardless
// of field or header order.
func Fingerprint(resource string, opts *Options) string {
	method := http.MethodGet
	if opts != nil && opts.Method != "" {
		method = strings.ToUpper(opts.Method)
	}

	key := method + " " + resource
	if opts == nil {
		return key
	}

	if len(opts.Header) > 0 {
		headerParts := make([]string, 0, len(opts.Header))
		for name, values := range opts.Header {
			headerParts = append(headerParts, http.CanonicalHeaderKey(name)+":"+strings.Join(values, ","))
		}
		sort.Strings(headerParts)
		key = key + "|" + strings.Join(headerParts, "|")
	}

	if len(opts.Body) > 0 {
		digest := sha256.Sum256(opts.Body)
		key = key + "|body:" + hex.EncodeToString(digest[:])
	}

	return key
}
