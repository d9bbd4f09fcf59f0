// Package providers contains dependency injection providers for the ListenUp reader settings server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.FromEnvironment(cfg.App.Environment, cfg.Logger.Level)

	log.Info("Starting ListenUp Reader",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"metadata_path", cfg.Metadata.BasePath,
		"storage", cfg.Storage.Backend,
	)

	return log, nil
}
