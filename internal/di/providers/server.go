package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/api"
	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/service"
)

// version is reported in the OpenAPI document.
const version = "1.0.0"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	settings := do.MustInvoke[*service.ReaderSettingsService](i)

	var limiter *api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		log.Info("Rate limiting enabled",
			"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
			"burst", cfg.RateLimit.Burst)
	}

	services := &api.Services{
		ReaderSettings: settings,
		Tokens:         tokens,
		Events:         sseHandle.Manager,
		Metrics:        m,
	}

	handler := api.NewServer(services, api.Options{
		Name:        cfg.Server.Name,
		Version:     version,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimiter: limiter,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}
