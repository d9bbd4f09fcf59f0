// Package di provides dependency injection configuration for the ListenUp reader settings server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/di/providers"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Events and observability
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Defaults
	do.Provide(injector, providers.ProvideDefaults)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideReaderSettingsService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) (err error) {
	// Providers report configuration and I/O failures by panicking out of MustInvoke.
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.DefaultsHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.ReaderSettingsService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
