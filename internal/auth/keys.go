// Package auth issues and verifies the access tokens that identify readers.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit (32-byte) symmetric key.
	keyLength = 32
	// Expected hex-encoded length (32 bytes = 64 hex characters).
	keyHexLength = 64

	keyFileName = "auth.key"
)

// KeyPath returns where the token key lives under the metadata directory.
func KeyPath(metadataPath string) string {
	return filepath.Join(metadataPath, keyFileName)
}

// LoadKey reads an existing hex-encoded key. It never creates one.
func LoadKey(metadataPath string) ([]byte, error) {
	//#nosec G304 -- Auth key path is derived from validated metadata path
	keyBytes, err := os.ReadFile(KeyPath(metadataPath))
	if err != nil {
		return nil, fmt.Errorf("read auth key: %w", err)
	}
	return decodeKey(keyBytes)
}

// LoadOrGenerateKey loads the token key from <metadataPath>/auth.key,
// generating and saving a new one if the file doesn't exist.
func LoadOrGenerateKey(metadataPath string) ([]byte, error) {
	key, err := LoadKey(metadataPath)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(metadataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if err := os.WriteFile(KeyPath(metadataPath), []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, nil
}

func decodeKey(raw []byte) ([]byte, error) {
	keyHex := strings.TrimSpace(string(raw))
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	return key, nil
}
