// Package metrics exposes Prometheus collectors for the reader settings service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reader_settings"

// Operation outcomes.
const (
	ResultOK       = "ok"
	ResultNoop     = "noop"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	legacyImports   *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	defaultsReloads *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Settings operations by name and result.",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Latency of settings operations.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
		legacyImports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "legacy_imports_total",
				Help:      "Legacy settings blobs imported, by detected shape.",
			},
			[]string{"shape"},
		),
		eventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sse_events_dropped_total",
				Help:      "SSE events dropped because a client or the queue was full.",
			},
			[]string{"event_type"},
		),
		defaultsReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "defaults_reloads_total",
				Help:      "Reloads of the defaults file, by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.legacyImports,
		m.eventsDropped,
		m.defaultsReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveOperation records one settings operation.
func (m *Metrics) ObserveOperation(operation, result string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// LegacyImported counts an imported legacy blob.
func (m *Metrics) LegacyImported(shape string) {
	m.legacyImports.WithLabelValues(shape).Inc()
}

// EventDropped counts an undelivered SSE event.
func (m *Metrics) EventDropped(eventType string) {
	m.eventsDropped.WithLabelValues(eventType).Inc()
}

// DefaultsReloaded counts a defaults file reload attempt.
func (m *Metrics) DefaultsReloaded(ok bool) {
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.defaultsReloads.WithLabelValues(result).Inc()
}

// RegisterClientGauge exposes the current number of SSE clients.
func (m *Metrics) RegisterClientGauge(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected SSE clients.",
		},
		func() float64 { return float64(count()) },
	))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
