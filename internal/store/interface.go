// Package store defines the persistence interface for reader settings and
// its Badger implementation.
package store

import (
	"context"

	"github.com/listenupapp/listenup-reader/internal/domain"
)

// RevisionAbsent as an expected revision makes a save create-only: it fails
// with ErrRevisionConflict when a profile is already stored.
const RevisionAbsent = "-"

// ReaderSettingsRepository persists one settings profile per reader.
// Implementations must perform the revision check and the write atomically.
type ReaderSettingsRepository interface {
	// GetReaderProfile returns ErrReaderProfileNotFound when nothing is stored.
	GetReaderProfile(ctx context.Context, userID string) (*domain.ReaderProfile, error)

	// SaveReaderProfile stores profile. A non-empty expectedRevision must match
	// the stored revision, otherwise ErrRevisionConflict is returned.
	// RevisionAbsent requires that nothing is stored yet.
	SaveReaderProfile(ctx context.Context, profile *domain.ReaderProfile, expectedRevision string) error

	// DeleteReaderProfile removes the stored profile. A non-empty
	// expectedRevision is checked like SaveReaderProfile.
	DeleteReaderProfile(ctx context.Context, userID, expectedRevision string) error

	// ListReaderProfiles returns every stored profile ordered by user ID.
	ListReaderProfiles(ctx context.Context) ([]*domain.ReaderProfile, error)

	Ping(ctx context.Context) error
	Close() error
}
