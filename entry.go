package fetchcache

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httputil"
)

// encodeResponse captures resp, including its body, as a wire-format
// snapshot suitable for a Store. The body must already be replayable
// (fully buffered) by the caller.
func encodeResponse(resp *http.Response) ([]byte, error) {
	return httputil.DumpResponse(resp, true)
}

// decodeResponse rebuilds an http.Response from a stored snapshot. Every
// call produces an independently consumable response: the body reads from
// a fresh view of the snapshot bytes, so concurrent callers never share a
// stream.
func decodeResponse(snapshot []byte) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(snapshot)), nil)
}

// storedHeaders decodes only the headers of a stored snapshot, for
// expiration checks that do not need the body.
func storedHeaders(snapshot []byte) (http.Header, error) {
	resp, err := decodeResponse(snapshot)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp.Header, nil
}
