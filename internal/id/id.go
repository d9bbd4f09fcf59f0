// Package id generates prefixed NanoID identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifiers this service mints.
const (
	PrefixRevision = "rev"
	PrefixClient   = "client"
	PrefixToken    = "tok"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "rev-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewRevision returns a fresh settings revision.
func NewRevision() (string, error) {
	return Generate(PrefixRevision)
}
