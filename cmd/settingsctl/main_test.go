package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-reader/internal/auth"
	"github.com/listenupapp/listenup-reader/internal/config"
	"github.com/listenupapp/listenup-reader/internal/defaults"
	"github.com/listenupapp/listenup-reader/internal/di/providers"
	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/logger"
	"github.com/listenupapp/listenup-reader/internal/service"
	"github.com/listenupapp/listenup-reader/internal/store"
)

func testConfig(t *testing.T, backend string, args ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App:      config.AppConfig{Environment: "development"},
		Metadata: config.MetadataConfig{BasePath: dir},
		Storage:  config.StorageConfig{Backend: backend, Path: filepath.Join(dir, "store")},
		Auth:     config.AuthConfig{AccessTokenDuration: time.Minute},
		Reader:   config.ReaderConfig{Defaults: domain.NewDefaults()},
		Args:     args,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

func TestRun_Usage(t *testing.T) {
	tests := [][]string{
		nil,
		{"bogus"},
		{"token"},
		{"import", "alice"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			err := run(context.Background(), testConfig(t, config.BackendBadger, args...), testLogger(), io.Discard)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRun_Token(t *testing.T) {
	cfg := testConfig(t, config.BackendBadger, "token", "alice")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, testLogger(), &out))

	key, err := auth.LoadKey(cfg.Metadata.BasePath)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Minute)
	require.NoError(t, err)

	claims, err := tokens.VerifyAccessToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
}

func TestRun_ImportThenExport(t *testing.T) {
	for _, backend := range []string{config.BackendBadger, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			blobPath := filepath.Join(cfg.Metadata.BasePath, "blob.json")
			require.NoError(t, os.WriteFile(blobPath, []byte(`{"fontSizePx":22,"nightMode":true}`), 0o600))

			var out bytes.Buffer
			cfg.Args = []string{"import", "bob", blobPath}
			require.NoError(t, run(context.Background(), cfg, testLogger(), &out))
			assert.Contains(t, out.String(), `"shape":"v1"`)

			out.Reset()
			cfg.Args = []string{"export"}
			require.NoError(t, run(context.Background(), cfg, testLogger(), &out))

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], `"user_id":"bob"`)
			assert.Contains(t, lines[0], `"font_size_px":22`)
		})
	}
}

func TestExportProfiles_OrderedByReader(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)

	for _, user := range []string{"carol", "alice", "bob"} {
		blobPath := filepath.Join(cfg.Metadata.BasePath, user+".json")
		require.NoError(t, os.WriteFile(blobPath, []byte(`{"paddingDp":12}`), 0o600))
		cfg.Args = []string{"import", user, blobPath}
		require.NoError(t, run(context.Background(), cfg, testLogger(), io.Discard))
	}

	var out bytes.Buffer
	err := withService(cfg, testLogger(), func(svc *service.ReaderSettingsService) error {
		return exportProfiles(context.Background(), svc, &out)
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for i, user := range []string{"alice", "bob", "carol"} {
		assert.Contains(t, lines[i], `"user_id":"`+user+`"`)
		assert.Contains(t, lines[i], `"padding_dp":12`)
	}
}

func TestExportProfiles_ClosedStore(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	repo, err := providers.OpenStore(cfg.Storage, testLogger())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	provider := defaults.NewProvider(cfg.Reader.Defaults, "", nil)
	svc := service.NewReaderSettingsService(repo, provider, store.NewNoopEmitter(), nil)

	err = exportProfiles(context.Background(), svc, io.Discard)
	assert.ErrorContains(t, err, "list reader settings")
}

func TestRun_Defaults(t *testing.T) {
	cfg := testConfig(t, config.BackendBadger, "defaults")
	cfg.Reader.DefaultsFile = filepath.Join(cfg.Metadata.BasePath, "defaults.json")
	require.NoError(t, os.WriteFile(cfg.Reader.DefaultsFile, []byte(`{"font_size_px":30}`), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, testLogger(), &out))
	assert.Contains(t, out.String(), `"font_size_px":30`)
	assert.Contains(t, out.String(), `"line_height_px":43`)
}
