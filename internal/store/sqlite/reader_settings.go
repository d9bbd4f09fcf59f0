package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/store"
)

// readerSettingsColumns is the ordered list of columns selected in reader_settings queries.
// Must match the scan order in scanReaderProfile.
const readerSettingsColumns = `user_id, font_size_px, line_height_px, padding_dp,
	night_mode, background_color, revision, schema_version, updated_at`

// scanReaderProfile scans a sql.Row (or sql.Rows via its Scan method) into a domain.ReaderProfile.
func scanReaderProfile(scanner interface{ Scan(dest ...any) error }) (*domain.ReaderProfile, error) {
	var p domain.ReaderProfile

	var (
		fontSize, lineHeight, padding sql.NullFloat64
		nightMode                     sql.NullInt64
		backgroundColor               sql.NullString
		updatedAt                     string
	)

	err := scanner.Scan(
		&p.UserID,
		&fontSize,
		&lineHeight,
		&padding,
		&nightMode,
		&backgroundColor,
		&p.Revision,
		&p.SchemaVersion,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fontSize.Valid {
		p.Settings.SetFontSizePx(float32(fontSize.Float64))
	}
	if lineHeight.Valid {
		p.Settings.SetLineHeightPx(float32(lineHeight.Float64))
	}
	if padding.Valid {
		p.Settings.SetPaddingDp(float32(padding.Float64))
	}
	if nightMode.Valid {
		p.Settings.SetNightMode(nightMode.Int64 != 0)
	}
	if backgroundColor.Valid {
		p.Settings.SetBackgroundColor(backgroundColor.String)
	}

	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetReaderProfile retrieves a reader's settings profile.
// Returns store.ErrReaderProfileNotFound if nothing is stored.
func (s *Store) GetReaderProfile(ctx context.Context, userID string) (*domain.ReaderProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+readerSettingsColumns+` FROM reader_settings WHERE user_id = ?`, userID)

	p, err := scanReaderProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReaderProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reader settings: %w", err)
	}
	return p, nil
}

// SaveReaderProfile creates or replaces a reader's settings profile.
// With an expected revision the write is a conditional UPDATE, and with
// RevisionAbsent an INSERT that ignores existing rows, so the check and the
// write are a single statement.
func (s *Store) SaveReaderProfile(ctx context.Context, profile *domain.ReaderProfile, expectedRevision string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile.UserID == "" {
		return store.ErrInvalidInput.WithMessage("reader settings require a user ID")
	}

	ps := profile.Settings
	args := []any{
		nullFloat(ps.FontSizePx),
		nullFloat(ps.LineHeightPx),
		nullFloat(ps.PaddingDp),
		nullBool(ps.NightMode),
		nullableString(ps.BackgroundColor),
		profile.Revision,
		profile.SchemaVersion,
		formatTime(profile.UpdatedAt),
	}

	switch expectedRevision {
	case store.RevisionAbsent:
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO reader_settings (
				font_size_px, line_height_px, padding_dp, night_mode, background_color,
				revision, schema_version, updated_at, user_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO NOTHING`,
			append(args, profile.UserID)...,
		)
		if err != nil {
			return fmt.Errorf("create reader settings: %w", err)
		}
		return expectRow(result, store.ErrRevisionConflict)
	case "":
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO reader_settings (
				font_size_px, line_height_px, padding_dp, night_mode, background_color,
				revision, schema_version, updated_at, user_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				font_size_px = excluded.font_size_px,
				line_height_px = excluded.line_height_px,
				padding_dp = excluded.padding_dp,
				night_mode = excluded.night_mode,
				background_color = excluded.background_color,
				revision = excluded.revision,
				schema_version = excluded.schema_version,
				updated_at = excluded.updated_at`,
			append(args, profile.UserID)...,
		)
		if err != nil {
			return fmt.Errorf("save reader settings: %w", err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reader_settings SET
			font_size_px = ?, line_height_px = ?, padding_dp = ?, night_mode = ?,
			background_color = ?, revision = ?, schema_version = ?, updated_at = ?
		WHERE user_id = ? AND revision = ?`,
		append(args, profile.UserID, expectedRevision)...,
	)
	if err != nil {
		return fmt.Errorf("save reader settings: %w", err)
	}
	return expectRow(result, store.ErrRevisionConflict)
}

// DeleteReaderProfile deletes a reader's settings profile.
func (s *Store) DeleteReaderProfile(ctx context.Context, userID, expectedRevision string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if expectedRevision == "" {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM reader_settings WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("delete reader settings: %w", err)
		}
		return expectRow(result, store.ErrReaderProfileNotFound)
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reader_settings WHERE user_id = ? AND revision = ?`, userID, expectedRevision)
	if err != nil {
		return fmt.Errorf("delete reader settings: %w", err)
	}
	return expectRow(result, store.ErrRevisionConflict)
}

// ListReaderProfiles returns every stored profile ordered by user ID.
func (s *Store) ListReaderProfiles(ctx context.Context) ([]*domain.ReaderProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+readerSettingsColumns+` FROM reader_settings ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list reader settings: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.ReaderProfile
	for rows.Next() {
		p, err := scanReaderProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reader settings: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// expectRow returns errNone when the statement affected no rows.
func expectRow(result sql.Result, errNone error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNone
	}
	return nil
}
