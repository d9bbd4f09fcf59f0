package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("update", ResultOK, 3*time.Millisecond)
	m.ObserveOperation("update", ResultOK, time.Millisecond)
	m.ObserveOperation("update", ResultConflict, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("update", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("update", ResultConflict)))
}

func TestCounters(t *testing.T) {
	m := New()

	m.LegacyImported("v0")
	m.LegacyImported("v0")
	m.EventDropped("reader_settings.updated")
	m.DefaultsReloaded(true)
	m.DefaultsReloaded(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.legacyImports.WithLabelValues("v0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDropped.WithLabelValues("reader_settings.updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.defaultsReloads.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.defaultsReloads.WithLabelValues(ResultError)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RegisterClientGauge(func() int { return 3 })
	m.ObserveOperation("get", ResultOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.True(t, strings.Contains(text, "reader_settings_sse_clients 3"))
	assert.True(t, strings.Contains(text, `reader_settings_operations_total{operation="get",result="ok"} 1`))
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
