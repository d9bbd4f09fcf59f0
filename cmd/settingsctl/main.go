// Package main provides settingsctl, an offline tool for the reader settings store.
//
// Usage:
//
//	settingsctl [flags] token <user-id>
//	settingsctl [flags] export
//	settingsctl [flags] import <user-id> <legacy-blob.json>
//	settingsctl [flags] defaults
//
// Flags are the same as the server's (-metadata-path, -storage, ...).
package main

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/defaults"
	"github.com/listenupapp/listenup-reader/internal/di/providers"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/service"
	"github.com/listenupapp/listenup-reader/internal/store"
)

var errUsage = errors.New("usage: settingsctl [flags] token <user-id> | export | import <user-id> <file> | defaults")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Keep stdout clean for command output.
	lg := logger.New(logger.Config{
		Writer:      os.Stderr,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel("warn"),
	})

	if err := run(context.Background(), cfg, lg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *logger.Logger, out io.Writer) error {
	if len(cfg.Args) == 0 {
		return errUsage
	}

	switch cmd, args := cfg.Args[0], cfg.Args[1:]; cmd {
	case "token":
		if len(args) != 1 {
			return errUsage
		}
		return mintToken(cfg, args[0], out)

	case "export":
		return withService(cfg, lg, func(svc *service.ReaderSettingsService) error {
			return exportProfiles(ctx, svc, out)
		})

	case "import":
		if len(args) != 2 {
			return errUsage
		}
		blob, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read blob: %w", err)
		}
		return withService(cfg, lg, func(svc *service.ReaderSettingsService) error {
			result, err := svc.ImportLegacy(ctx, args[0], blob)
			if err != nil {
				return err
			}
			return writeJSONLine(out, result)
		})

	case "defaults":
		provider, err := loadDefaults(cfg, lg)
		if err != nil {
			return err
		}
		return writeJSONLine(out, provider.Get())

	default:
		return errUsage
	}
}

func mintToken(cfg *config.Config, userID string, out io.Writer) error {
	key, err := auth.LoadOrGenerateKey(cfg.Metadata.BasePath)
	if err != nil {
		return fmt.Errorf("load auth key: %w", err)
	}

	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		return err
	}

	token, err := tokens.GenerateAccessToken(userID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}

// withService opens the configured store and runs fn against a settings
// service that publishes no events.
func withService(cfg *config.Config, lg *logger.Logger, fn func(*service.ReaderSettingsService) error) error {
	provider, err := loadDefaults(cfg, lg)
	if err != nil {
		return err
	}

	repo, err := providers.OpenStore(cfg.Storage, lg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	return fn(service.NewReaderSettingsService(repo, provider, store.NewNoopEmitter(), lg.Logger))
}

// exportProfiles writes one JSON profile per line, ordered by reader ID.
func exportProfiles(ctx context.Context, svc *service.ReaderSettingsService, out io.Writer) error {
	profiles, err := svc.ExportAll(ctx)
	if err != nil {
		return err
	}

	for _, p := range profiles {
		if err := writeJSONLine(out, p); err != nil {
			return err
		}
	}
	return nil
}

func loadDefaults(cfg *config.Config, lg *logger.Logger) (*defaults.Provider, error) {
	provider := defaults.NewProvider(cfg.Reader.Defaults, cfg.Reader.DefaultsFile, lg.Logger)
	if err := provider.Load(); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	return provider, nil
}

func writeJSONLine(out io.Writer, v any) error {
	if err := json.MarshalWrite(out, v); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}
