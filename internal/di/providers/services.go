package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/service"
)

// ProvideReaderSettingsService provides the reader settings service.
func ProvideReaderSettingsService(i do.Injector) (*service.ReaderSettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	defaultsHandle := do.MustInvoke[*DefaultsHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewReaderSettingsService(storeHandle, defaultsHandle.Provider, sseHandle.Manager, log.Logger)
	svc.SetRecorder(m)

	return svc, nil
}
