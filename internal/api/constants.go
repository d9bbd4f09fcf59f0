package api

// API limits and constants.
const (
	// MaxLegacyBlobSize caps the body of a legacy settings import (64 KB).
	MaxLegacyBlobSize = 64 << 10

	// SettingsPath is the root of the reader settings routes.
	SettingsPath = "/api/v1/reader/settings"
)

// Cache-Control header values.
const (
	CachePrivateRevalidate = "private, no-cache"
	CacheNoStore           = "no-store"
)
