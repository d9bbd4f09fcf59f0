package api

import (
	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/service"
	"github.com/listenupapp/listenup-reader/internal/sse"
)

// Services groups the collaborators used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	ReaderSettings *service.ReaderSettingsService
	Tokens         *auth.TokenService
	Events         *sse.Manager
	Metrics        *metrics.Metrics // Optional; /metrics is not mounted when nil
}
