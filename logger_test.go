package fetchcache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTextLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	testLogger := newTextLogger(&buf)

	client := newClient(t, NewMemoryStore(), WithLogger(testLogger))

	if client.logger != testLogger {
		t.Error("WithLogger should set the logger on the client")
	}
	if client.log() != testLogger {
		t.Error("log() should return the custom logger when set")
	}
}

func TestDefaultLoggerFallback(t *testing.T) {
	client := newClient(t, NewMemoryStore())

	if client.log() != slog.Default() {
		t.Error("log() should return slog.Default() when no custom logger is set")
	}
}

func TestLoggerNilClient(t *testing.T) {
	var c *Client
	logger := c.log()
	if logger == nil {
		t.Error("log() should return the default logger even for a nil client")
	}
	if logger != slog.Default() {
		t.Error("log() should return slog.Default() for a nil client")
	}
}

func TestStoreFailuresAreLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=3600")
		if _, err := w.Write([]byte("test response")); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	var buf bytes.Buffer
	testLogger := newTextLogger(&buf)

	client := newClient(t, failingStore{}, WithLogger(testLogger))

	resp, err := client.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readBody(t, resp)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "store read failed") {
		t.Errorf("expected 'store read failed' log message, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "cache population failed") {
		t.Errorf("expected 'cache population failed' log message, got: %s", logOutput)
	}
}
