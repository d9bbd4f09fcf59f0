package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/listenup-reader/internal/domain"
)

const readerSettingsPrefix = "readersettings:"

func readerSettingsKey(userID string) []byte {
	return []byte(readerSettingsPrefix + userID)
}

// GetReaderProfile retrieves the settings profile for a reader.
func (s *Store) GetReaderProfile(ctx context.Context, userID string) (*domain.ReaderProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profile domain.ReaderProfile
	err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, readerSettingsKey(userID), &profile)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrReaderProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reader settings: %w", err)
	}
	return &profile, nil
}

// SaveReaderProfile creates or replaces a reader's settings profile.
func (s *Store) SaveReaderProfile(ctx context.Context, profile *domain.ReaderProfile, expectedRevision string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile.UserID == "" {
		return ErrInvalidInput.WithMessage("reader settings require a user ID")
	}

	key := readerSettingsKey(profile.UserID)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := checkRevision(txn, key, expectedRevision); err != nil {
			return err
		}
		return set(txn, key, profile)
	})
	return mapTxnError(err, "save reader settings")
}

// DeleteReaderProfile removes a reader's settings profile.
func (s *Store) DeleteReaderProfile(ctx context.Context, userID, expectedRevision string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := readerSettingsKey(userID)
	err := s.db.Update(func(txn *badger.Txn) error {
		if expectedRevision == "" {
			if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
				return ErrReaderProfileNotFound
			} else if err != nil {
				return err
			}
		} else if err := checkRevision(txn, key, expectedRevision); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return mapTxnError(err, "delete reader settings")
}

// ListReaderProfiles returns every stored profile ordered by user ID.
func (s *Store) ListReaderProfiles(ctx context.Context) ([]*domain.ReaderProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profiles []*domain.ReaderProfile
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(readerSettingsPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var p domain.ReaderProfile
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			profiles = append(profiles, &p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reader settings: %w", err)
	}
	return profiles, nil
}

// checkRevision enforces optimistic concurrency inside a write transaction.
func checkRevision(txn *badger.Txn, key []byte, expected string) error {
	if expected == "" {
		return nil
	}
	if expected == RevisionAbsent {
		_, err := txn.Get(key)
		if err == nil {
			return ErrRevisionConflict
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}

	var current domain.ReaderProfile
	err := get(txn, key, &current)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrRevisionConflict
	}
	if err != nil {
		return err
	}
	if current.Revision != expected {
		return ErrRevisionConflict
	}
	return nil
}

// mapTxnError converts badger's transaction conflict into a revision conflict
// and leaves store errors untouched.
func mapTxnError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrConflict) {
		return ErrRevisionConflict.WithCause(err)
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
