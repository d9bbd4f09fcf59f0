package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "reader-store-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func newProfile(userID, revision string) *domain.ReaderProfile {
	p := domain.NewReaderProfile(userID)
	p.Revision = revision
	p.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return p
}

func TestReaderProfileCRUD(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	p := newProfile("user-123", "rev-1")
	p.Settings.SetFontSizePx(20)
	p.Settings.SetNightMode(true)
	p.Settings.SetBackgroundColor("#FF1E1E1E")

	// Create
	require.NoError(t, s.SaveReaderProfile(ctx, p, ""))

	// Read
	got, err := s.GetReaderProfile(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got.Revision)
	assert.Equal(t, domain.ReaderSettingsSchemaVersion, got.SchemaVersion)
	assert.True(t, p.Settings.Equal(got.Settings), "diff: %v", p.Settings.Diff(got.Settings))
	_, ok := got.Settings.LineHeight()
	assert.False(t, ok, "unset fields stay unset after a round trip")

	// Update
	p.Settings.ClearNightMode()
	p.Revision = "rev-2"
	require.NoError(t, s.SaveReaderProfile(ctx, p, "rev-1"))

	got, err = s.GetReaderProfile(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "rev-2", got.Revision)
	_, ok = got.Settings.Night()
	assert.False(t, ok)

	// Delete
	require.NoError(t, s.DeleteReaderProfile(ctx, "user-123", ""))

	_, err = s.GetReaderProfile(ctx, "user-123")
	assert.ErrorIs(t, err, store.ErrReaderProfileNotFound)
}

func TestSaveReaderProfile_RevisionConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// Expecting a revision when nothing is stored.
	err := s.SaveReaderProfile(ctx, newProfile("user-1", "rev-1"), "rev-0")
	assert.ErrorIs(t, err, store.ErrRevisionConflict)

	require.NoError(t, s.SaveReaderProfile(ctx, newProfile("user-1", "rev-1"), ""))

	// Stale revision.
	err = s.SaveReaderProfile(ctx, newProfile("user-1", "rev-2"), "rev-0")
	assert.ErrorIs(t, err, store.ErrRevisionConflict)

	got, err := s.GetReaderProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got.Revision, "failed save must not write")
}

func TestSaveReaderProfile_CreateOnly(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.SaveReaderProfile(ctx, newProfile("user-1", "rev-1"), store.RevisionAbsent))

	err := s.SaveReaderProfile(ctx, newProfile("user-1", "rev-2"), store.RevisionAbsent)
	assert.ErrorIs(t, err, store.ErrRevisionConflict)

	got, err := s.GetReaderProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got.Revision)
}

func TestSaveReaderProfile_RequiresUserID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.SaveReaderProfile(context.Background(), newProfile("", "rev-1"), "")
	assert.Error(t, err)
}

func TestDeleteReaderProfile(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	err := s.DeleteReaderProfile(ctx, "missing", "")
	assert.ErrorIs(t, err, store.ErrReaderProfileNotFound)

	require.NoError(t, s.SaveReaderProfile(ctx, newProfile("user-1", "rev-1"), ""))

	err = s.DeleteReaderProfile(ctx, "user-1", "rev-stale")
	assert.ErrorIs(t, err, store.ErrRevisionConflict)

	require.NoError(t, s.DeleteReaderProfile(ctx, "user-1", "rev-1"))
	_, err = s.GetReaderProfile(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrReaderProfileNotFound)
}

func TestListReaderProfiles_OrderedByUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for _, id := range []string{"user-c", "user-a", "user-b"} {
		require.NoError(t, s.SaveReaderProfile(ctx, newProfile(id, "rev-"+id), ""))
	}

	profiles, err := s.ListReaderProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "user-a", profiles[0].UserID)
	assert.Equal(t, "user-b", profiles[1].UserID)
	assert.Equal(t, "user-c", profiles[2].UserID)
}

func TestReaderProfile_CanceledContext(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetReaderProfile(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.SaveReaderProfile(ctx, newProfile("user-1", "rev-1"), ""), context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestPing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}
