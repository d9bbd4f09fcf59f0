package logger

import (
	"bytes"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON, Level: slog.LevelDebug})

	h := middleware.RequestID(l.RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/reader/settings", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "PATCH", entry["method"])
	assert.Equal(t, "/api/v1/reader/settings", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(2), entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRequestLogger_ServerErrorsAreWarnings(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON, Level: slog.LevelInfo})

	h := l.RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	ok := l.RequestLogger()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String(), "successful requests log at debug")
}

func TestLogger_WithUser(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON})

	l.WithUser("alice").Info("saved")
	assert.Contains(t, buf.String(), `"user_id":"alice"`)
}
