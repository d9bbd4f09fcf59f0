package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/metrics"
)

// ProvideMetrics provides the Prometheus collectors and attaches the SSE
// manager's drop counter and client gauge.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	m := metrics.New()
	sseHandle.SetDropRecorder(m)
	m.RegisterClientGauge(sseHandle.ClientCount)

	return m, nil
}
