package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/sse"
	"github.com/listenupapp/listenup-reader/internal/store"
	"github.com/listenupapp/listenup-reader/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured settings store with shutdown capability.
type StoreHandle struct {
	store.ReaderSettingsRepository
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the settings store selected by configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	repo, err := OpenStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	return &StoreHandle{ReaderSettingsRepository: repo, Backend: cfg.Storage.Backend}, nil
}

// OpenStore opens the store for the given storage configuration.
func OpenStore(cfg config.StorageConfig, log *logger.Logger) (store.ReaderSettingsRepository, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.Path, log.Logger)
	case config.BackendBadger, "":
		return store.New(cfg.Path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
