// Package service implements loading and editing of reader settings.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-reader/internal/color"
	"github.com/listenupapp/listenup-reader/internal/domain"
	domainerrors "github.com/listenupapp/listenup-reader/internal/errors"
	"github.com/listenupapp/listenup-reader/internal/id"
	"github.com/listenupapp/listenup-reader/internal/legacy"
	"github.com/listenupapp/listenup-reader/internal/metrics"
	"github.com/listenupapp/listenup-reader/internal/sse"
	"github.com/listenupapp/listenup-reader/internal/store"
	"github.com/listenupapp/listenup-reader/internal/validation"
)

// AnyRevision as an If-Match value only requires that settings are stored.
const AnyRevision = "*"

// Operation names used for metrics and logs.
const (
	OpGet     = "get"
	OpUpdate  = "update"
	OpReplace = "replace"
	OpReset   = "reset"
	OpImport  = "import"
	OpExport  = "export"
)

// DefaultsSource supplies the active application defaults.
type DefaultsSource interface {
	Get() domain.Defaults
}

// Recorder receives operation metrics.
type Recorder interface {
	ObserveOperation(operation, result string, elapsed time.Duration)
	LegacyImported(shape string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) LegacyImported(string)                          {}

// UpdateReaderSettingsRequest is a partial edit. Omitted fields are left
// untouched, present fields are set, and fields named in Clear are unset.
type UpdateReaderSettingsRequest struct {
	FontSizePx      *float32 `json:"font_size_px,omitempty" validate:"omitempty,gt=0,lte=200"`
	LineHeightPx    *float32 `json:"line_height_px,omitempty" validate:"omitempty,gt=0,lte=400"`
	PaddingDp       *float32 `json:"padding_dp,omitempty" validate:"omitempty,gte=0,lte=200"`
	NightMode       *bool    `json:"night_mode,omitempty"`
	BackgroundColor *string  `json:"background_color,omitempty" validate:"omitempty,readercolor"`
	Clear           []string `json:"clear,omitempty" validate:"omitempty,dive,oneof=font_size_px line_height_px padding_dp night_mode background_color"`
}

// settingsInput applies the same limits to a full settings snapshot.
type settingsInput struct {
	FontSizePx      *float32 `json:"font_size_px,omitempty" validate:"omitempty,gt=0,lte=200"`
	LineHeightPx    *float32 `json:"line_height_px,omitempty" validate:"omitempty,gt=0,lte=400"`
	PaddingDp       *float32 `json:"padding_dp,omitempty" validate:"omitempty,gte=0,lte=200"`
	BackgroundColor *string  `json:"background_color,omitempty" validate:"omitempty,readercolor"`
}

// ResolvedSettings pairs a stored profile with the values a client should render.
type ResolvedSettings struct {
	Profile  *domain.ReaderProfile `json:"profile"`
	Resolved domain.Resolved       `json:"resolved"`
	// EffectiveDark is true when night mode is on or the background is dark.
	EffectiveDark bool `json:"effective_dark"`
}

// ImportResult describes a legacy import.
type ImportResult struct {
	Profile     *domain.ReaderProfile `json:"profile"`
	Shape       string                `json:"shape"`
	IgnoredKeys []string              `json:"ignored_keys"`
	Changed     bool                  `json:"changed"`
}

// ReaderSettingsService manages per-reader display settings.
type ReaderSettingsService struct {
	repo      store.ReaderSettingsRepository
	defaults  DefaultsSource
	events    store.EventEmitter
	validator *validation.Validator
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewReaderSettingsService creates a new reader settings service.
func NewReaderSettingsService(repo store.ReaderSettingsRepository, defaults DefaultsSource, events store.EventEmitter, logger *slog.Logger) *ReaderSettingsService {
	return &ReaderSettingsService{
		repo:      repo,
		defaults:  defaults,
		events:    events,
		validator: validation.New(),
		metrics:   nopRecorder{},
		logger:    logger,
		now:       time.Now,
	}
}

// SetRecorder sets the metrics recorder.
func (s *ReaderSettingsService) SetRecorder(r Recorder) {
	s.metrics = r
}

// Get returns the reader's stored profile, or an unsaved empty profile.
func (s *ReaderSettingsService) Get(ctx context.Context, userID string) (*domain.ReaderProfile, error) {
	start := s.now()
	profile, err := s.load(ctx, userID)
	s.observe(OpGet, start, err)
	return profile, err
}

// GetResolved returns the profile with every unset field filled from the active defaults.
func (s *ReaderSettingsService) GetResolved(ctx context.Context, userID string) (*ResolvedSettings, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved := s.defaults.Get().Resolve(profile.Settings)
	dark := resolved.NightMode
	if !dark && resolved.BackgroundColor != "" {
		if c, err := color.Parse(resolved.BackgroundColor); err == nil {
			dark = c.IsDark()
		}
	}

	return &ResolvedSettings{
		Profile:       profile,
		Resolved:      resolved,
		EffectiveDark: dark,
	}, nil
}

// Update applies a partial edit. When nothing changes the stored profile is
// returned as-is and no event is emitted.
func (s *ReaderSettingsService) Update(ctx context.Context, userID string, req UpdateReaderSettingsRequest, ifMatch string) (*domain.ReaderProfile, error) {
	start := s.now()
	profile, changed, err := s.update(ctx, userID, req, ifMatch)
	s.observeWrite(OpUpdate, start, changed, err)
	return profile, err
}

func (s *ReaderSettingsService) update(ctx context.Context, userID string, req UpdateReaderSettingsRequest, ifMatch string) (*domain.ReaderProfile, bool, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}
	if err := checkClearConflicts(req); err != nil {
		return nil, false, err
	}

	patch := domain.NewReaderSettingsWith(req.FontSizePx, req.LineHeightPx, req.PaddingDp, req.NightMode, req.BackgroundColor)
	if err := normalizeColor(&patch); err != nil {
		return nil, false, err
	}

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if err := checkPrecondition(current, ifMatch); err != nil {
		return nil, false, err
	}

	next := current.Settings.Merge(patch)
	for _, field := range req.Clear {
		next.Clear(field)
	}

	return s.save(ctx, current, next, sse.SourceUpdate, ifMatch)
}

// Replace overwrites the reader's settings with a full snapshot.
func (s *ReaderSettingsService) Replace(ctx context.Context, userID string, settings domain.ReaderSettings, ifMatch string) (*domain.ReaderProfile, error) {
	start := s.now()
	profile, changed, err := s.replace(ctx, userID, settings, ifMatch)
	s.observeWrite(OpReplace, start, changed, err)
	return profile, err
}

func (s *ReaderSettingsService) replace(ctx context.Context, userID string, settings domain.ReaderSettings, ifMatch string) (*domain.ReaderProfile, bool, error) {
	next, err := s.validateSnapshot(settings)
	if err != nil {
		return nil, false, err
	}

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if err := checkPrecondition(current, ifMatch); err != nil {
		return nil, false, err
	}

	return s.save(ctx, current, next, sse.SourceReplace, ifMatch)
}

// Reset deletes the reader's settings so every field falls back to defaults.
// Resetting settings that were never stored succeeds without doing anything.
func (s *ReaderSettingsService) Reset(ctx context.Context, userID, ifMatch string) (*domain.ReaderProfile, error) {
	start := s.now()
	profile, changed, err := s.reset(ctx, userID, ifMatch)
	s.observeWrite(OpReset, start, changed, err)
	return profile, err
}

func (s *ReaderSettingsService) reset(ctx context.Context, userID, ifMatch string) (*domain.ReaderProfile, bool, error) {
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if err := checkPrecondition(current, ifMatch); err != nil {
		return nil, false, err
	}
	if !current.IsStored() {
		return current, false, nil
	}

	err = s.repo.DeleteReaderProfile(ctx, userID, current.Revision)
	if errors.Is(err, store.ErrReaderProfileNotFound) && ifMatch == "" {
		// Deleted concurrently; the outcome is the same.
		return domain.NewReaderProfile(userID), false, nil
	}
	if err != nil {
		return nil, false, mapStoreError(err, ifMatch)
	}

	s.events.Emit(sse.NewReaderSettingsResetEvent(userID, current.Revision))

	if s.logger != nil {
		s.logger.Info("reader settings reset", "user_id", userID, "previous_revision", current.Revision)
	}

	return domain.NewReaderProfile(userID), true, nil
}

// ImportLegacy decodes a settings blob written by an earlier client and
// stores it as the reader's settings.
func (s *ReaderSettingsService) ImportLegacy(ctx context.Context, userID string, blob []byte) (*ImportResult, error) {
	start := s.now()
	result, err := s.importLegacy(ctx, userID, blob)
	changed := err == nil && result.Changed
	s.observeWrite(OpImport, start, changed, err)
	return result, err
}

func (s *ReaderSettingsService) importLegacy(ctx context.Context, userID string, blob []byte) (*ImportResult, error) {
	decoded, err := legacy.Decode(blob)
	if err != nil {
		return nil, domainerrors.Validation("invalid legacy settings").WithCause(err)
	}

	next, err := s.validateSnapshot(decoded.Settings)
	if err != nil {
		return nil, err
	}

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, changed, err := s.save(ctx, current, next, sse.SourceImport, "")
	if err != nil {
		return nil, err
	}

	s.metrics.LegacyImported(decoded.Shape.String())

	ignored := decoded.IgnoredKeys
	if ignored == nil {
		ignored = []string{}
	}
	if s.logger != nil {
		s.logger.Info("legacy reader settings imported",
			"user_id", userID,
			"shape", decoded.Shape.String(),
			"ignored_keys", ignored,
			"changed", changed)
	}

	return &ImportResult{
		Profile:     profile,
		Shape:       decoded.Shape.String(),
		IgnoredKeys: ignored,
		Changed:     changed,
	}, nil
}

// ExportLegacy returns the reader's settings in the legacy client blob format.
func (s *ReaderSettingsService) ExportLegacy(ctx context.Context, userID string) ([]byte, error) {
	start := s.now()

	profile, err := s.load(ctx, userID)
	if err != nil {
		s.observe(OpExport, start, err)
		return nil, err
	}

	blob, err := legacy.Encode(profile.Settings)
	s.observe(OpExport, start, err)
	return blob, err
}

// ExportAll returns every stored profile ordered by reader ID.
func (s *ReaderSettingsService) ExportAll(ctx context.Context) ([]*domain.ReaderProfile, error) {
	profiles, err := s.repo.ListReaderProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reader settings: %w", err)
	}
	return profiles, nil
}

// Ping checks the underlying store.
func (s *ReaderSettingsService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// load returns the stored profile or an unsaved empty one.
func (s *ReaderSettingsService) load(ctx context.Context, userID string) (*domain.ReaderProfile, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("reader identity required")
	}

	profile, err := s.repo.GetReaderProfile(ctx, userID)
	if errors.Is(err, store.ErrReaderProfileNotFound) {
		return domain.NewReaderProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reader settings: %w", err)
	}
	return profile, nil
}

// save stores next as a new revision unless it equals the current settings.
func (s *ReaderSettingsService) save(ctx context.Context, current *domain.ReaderProfile, next domain.ReaderSettings, source, ifMatch string) (*domain.ReaderProfile, bool, error) {
	changed := current.Settings.Diff(next)
	if len(changed) == 0 {
		return current, false, nil
	}

	revision, err := id.NewRevision()
	if err != nil {
		return nil, false, fmt.Errorf("generate revision: %w", err)
	}

	profile := current.Clone()
	profile.Settings = next
	profile.Revision = revision
	profile.SchemaVersion = domain.ReaderSettingsSchemaVersion
	profile.UpdatedAt = s.now()

	expected := current.Revision
	if !current.IsStored() {
		expected = store.RevisionAbsent
	}
	if err := s.repo.SaveReaderProfile(ctx, profile, expected); err != nil {
		return nil, false, mapStoreError(err, ifMatch)
	}

	s.events.Emit(sse.NewReaderSettingsUpdatedEvent(profile, source, changed))

	if s.logger != nil {
		s.logger.Info("reader settings saved",
			"user_id", profile.UserID,
			"revision", profile.Revision,
			"source", source,
			"changed_fields", changed)
	}

	return profile, true, nil
}

func (s *ReaderSettingsService) validateSnapshot(settings domain.ReaderSettings) (domain.ReaderSettings, error) {
	in := settingsInput{
		FontSizePx:      settings.FontSizePx,
		LineHeightPx:    settings.LineHeightPx,
		PaddingDp:       settings.PaddingDp,
		BackgroundColor: settings.BackgroundColor,
	}
	if err := s.validator.Validate(in); err != nil {
		return domain.ReaderSettings{}, err
	}

	next := settings.Clone()
	if err := normalizeColor(&next); err != nil {
		return domain.ReaderSettings{}, err
	}
	return next, nil
}

func (s *ReaderSettingsService) observe(op string, start time.Time, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = resultFor(err)
	}
	s.metrics.ObserveOperation(op, result, s.now().Sub(start))
}

func (s *ReaderSettingsService) observeWrite(op string, start time.Time, changed bool, err error) {
	result := metrics.ResultOK
	switch {
	case err != nil:
		result = resultFor(err)
	case !changed:
		result = metrics.ResultNoop
	}
	s.metrics.ObserveOperation(op, result, s.now().Sub(start))
}

func resultFor(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, domainerrors.ErrConflict), errors.Is(err, domainerrors.ErrPreconditionFailed):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

// checkPrecondition compares an If-Match value against the current revision.
func checkPrecondition(current *domain.ReaderProfile, ifMatch string) error {
	switch {
	case ifMatch == "":
		return nil
	case ifMatch == AnyRevision:
		if !current.IsStored() {
			return domainerrors.PreconditionFailed("reader settings do not exist")
		}
		return nil
	case ifMatch != current.Revision:
		return domainerrors.PreconditionFailed("reader settings revision does not match").
			WithDetails(map[string]string{"current_revision": current.Revision})
	default:
		return nil
	}
}

// mapStoreError turns a revision conflict into 412 when the client sent
// If-Match and 409 otherwise.
func mapStoreError(err error, ifMatch string) error {
	if !errors.Is(err, store.ErrRevisionConflict) {
		return fmt.Errorf("save reader settings: %w", err)
	}
	if ifMatch != "" {
		return domainerrors.PreconditionFailed("reader settings revision does not match").WithCause(err)
	}
	return domainerrors.Conflict("reader settings were modified concurrently").WithCause(err)
}

func checkClearConflicts(req UpdateReaderSettingsRequest) error {
	set := map[string]bool{
		domain.FieldFontSizePx:      req.FontSizePx != nil,
		domain.FieldLineHeightPx:    req.LineHeightPx != nil,
		domain.FieldPaddingDp:       req.PaddingDp != nil,
		domain.FieldNightMode:       req.NightMode != nil,
		domain.FieldBackgroundColor: req.BackgroundColor != nil,
	}

	details := make(map[string]string)
	for _, field := range req.Clear {
		if set[field] {
			details[field] = "cannot be both set and cleared"
		}
	}
	if len(details) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", details)
	}
	return nil
}

func normalizeColor(s *domain.ReaderSettings) error {
	bg, ok := s.Background()
	if !ok {
		return nil
	}
	normalized, err := color.Normalize(bg)
	if err != nil {
		return domainerrors.ValidationWithDetails("validation failed",
			map[string]string{domain.FieldBackgroundColor: err.Error()})
	}
	s.SetBackgroundColor(normalized)
	return nil
}
