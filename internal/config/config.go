// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/listenupapp/listenup-reader/internal/color"
	"github.com/listenupapp/listenup-reader/internal/domain"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Metadata  MetadataConfig
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Reader    ReaderConfig

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// MetadataConfig holds metadata storage configuration.
type MetadataConfig struct {
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed CORS origins (default: *)
}

// StorageConfig selects the settings store.
type StorageConfig struct {
	Backend string // badger or sqlite (default: badger)
	Path    string // Database path (default: {metadata}/db or {metadata}/reader.db)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration // e.g., 15m
}

// RateLimitConfig limits settings writes per client IP.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// ReaderConfig holds the application reading defaults.
// Parsed from READER_* environment variables.
type ReaderConfig struct {
	Defaults     domain.Defaults `envPrefix:"DEFAULT_"`
	DefaultsFile string          `env:"DEFAULTS_FILE"`
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("listenup-reader", flag.ContinueOnError)

	envName := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	metadataPath := fs.String("metadata-path", "", "Base path for metadata storage")
	serverName := fs.String("server-name", "", "Name for the server")

	// Auth flags
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	// Storage flags
	storageBackend := fs.String("storage", "", "Settings store: badger or sqlite (default: badger)")
	storagePath := fs.String("storage-path", "", "Database path")

	// Rate limit flags
	rateLimitEnabled := fs.String("rate-limit", "", "Rate limit settings writes (default: true)")
	rateLimitRPM := fs.String("rate-limit-rpm", "", "Settings writes per minute per IP (default: 120)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Burst size for settings writes (default: 20)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*envName, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Metadata: MetadataConfig{
			BasePath: getConfigValue(*metadataPath, "METADATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:        getConfigValue(*serverName, "SERVER_NAME", "ListenUp Reader"),
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getConfigValue(*storageBackend, "STORAGE_BACKEND", BackendBadger)),
			Path:    getConfigValue(*storagePath, "STORAGE_PATH", ""),
		},
		Auth: AuthConfig{
			AccessTokenKey: nil, // Will be set by auth.LoadOrGenerateKey in main
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolConfigValue(*rateLimitEnabled, "RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getIntConfigValue(*rateLimitRPM, "RATE_LIMIT_RPM", 120),
			Burst:             getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 20),
		},
		Args: fs.Args(),
	}

	// Parse auth durations.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	// Parse server timeouts.
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	// Reader defaults come from READER_DEFAULT_* and READER_DEFAULTS_FILE.
	if err := env.ParseWithOptions(&cfg.Reader, env.Options{Prefix: "READER_"}); err != nil {
		return nil, fmt.Errorf("invalid reader defaults: %w", err)
	}

	// Expand and validate metadata path.
	if err := cfg.expandMetadataPath(); err != nil {
		return nil, fmt.Errorf("invalid metadata path: %w", err)
	}

	// Storage path defaults to a location under the metadata path.
	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if cfg.Reader.DefaultsFile != "" {
		if cfg.Reader.DefaultsFile, err = expandPath(cfg.Reader.DefaultsFile, ""); err != nil {
			return nil, fmt.Errorf("invalid reader defaults file: %w", err)
		}
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Metadata.BasePath == "" {
		return errors.New("metadata base path cannot be empty after expansion")
	}

	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requests per minute and burst")
	}

	return validateDefaults(c.Reader.Defaults)
}

func validateDefaults(d domain.Defaults) error {
	if d.FontSizePx <= 0 || d.LineHeightPx <= 0 {
		return errors.New("reader default font size and line height must be positive")
	}
	if d.PaddingDp < 0 {
		return errors.New("reader default padding cannot be negative")
	}
	if d.BackgroundColor != "" && !color.Valid(d.BackgroundColor) {
		return fmt.Errorf("invalid reader default background color: %s", d.BackgroundColor)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandMetadataPath expands ~ and makes the path absolute.
func (c *Config) expandMetadataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ListenUp", "reader")

	expanded, err := expandPath(c.Metadata.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Metadata.BasePath = expanded
	return nil
}

// expandStoragePath defaults to {metadata}/db for badger and
// {metadata}/reader.db for sqlite.
func (c *Config) expandStoragePath() error {
	defaultPath := filepath.Join(c.Metadata.BasePath, "db")
	if c.Storage.Backend == BackendSQLite {
		defaultPath = filepath.Join(c.Metadata.BasePath, "reader.db")
	}

	expanded, err := expandPath(c.Storage.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
