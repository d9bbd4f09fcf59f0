package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/defaults"
	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/sse"
	"github.com/listenupapp/listenup-reader/internal/watcher"
)

// DefaultsHandle wraps the defaults provider and its file watcher.
type DefaultsHandle struct {
	*defaults.Provider
	watcher *watcher.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *DefaultsHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.watcher != nil {
		return h.watcher.Stop()
	}
	return nil
}

// ProvideDefaults provides the reading defaults. When a defaults file is
// configured it is loaded now and reloaded whenever it changes.
func ProvideDefaults(i do.Injector) (*DefaultsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	provider := defaults.NewProvider(cfg.Reader.Defaults, cfg.Reader.DefaultsFile, log.Logger)
	provider.SetReloadRecorder(m)
	provider.OnChange(func(d domain.Defaults) {
		sseHandle.Emit(sse.NewReaderDefaultsChangedEvent(d))
	})

	handle := &DefaultsHandle{Provider: provider}
	if provider.File() == "" {
		return handle, nil
	}

	if err := provider.Load(); err != nil {
		return nil, err
	}

	w, err := watcher.New(log.Logger, watcher.Options{})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(provider.File()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Defaults watcher error", "error", err)
		}
	}()
	go provider.Run(ctx, w)

	log.Info("Watching defaults file", "path", provider.File())

	handle.watcher = w
	handle.cancel = cancel
	return handle, nil
}
