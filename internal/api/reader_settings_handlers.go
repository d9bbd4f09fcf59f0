package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/service"
)

func (s *Server) registerReaderSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getReaderSettings",
		Method:      http.MethodGet,
		Path:        SettingsPath,
		Summary:     "Get reader settings",
		Description: "Returns the reader's stored settings. Unset fields are omitted; the ETag header carries the revision.",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getResolvedReaderSettings",
		Method:      http.MethodGet,
		Path:        SettingsPath + "/resolved",
		Summary:     "Get resolved reader settings",
		Description: "Returns the reader's settings with every unset field filled from the server defaults",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetResolvedReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReaderSettings",
		Method:      http.MethodPatch,
		Path:        SettingsPath,
		Summary:     "Update reader settings",
		Description: "Sets the fields present in the body and clears the fields listed in clear. Other fields are untouched.",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceReaderSettings",
		Method:      http.MethodPut,
		Path:        SettingsPath,
		Summary:     "Replace reader settings",
		Description: "Overwrites every field. Fields absent from the body become unset.",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetReaderSettings",
		Method:      http.MethodDelete,
		Path:        SettingsPath,
		Summary:     "Reset reader settings",
		Description: "Deletes the reader's settings so every field falls back to the server defaults",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResetReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importLegacyReaderSettings",
		Method:       http.MethodPost,
		Path:         SettingsPath + "/import",
		Summary:      "Import legacy reader settings",
		Description:  "Accepts a settings blob written by an earlier reader client and stores it as the reader's settings",
		Tags:         []string{"Reader Settings"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxLegacyBlobSize,
	}, s.handleImportLegacyReaderSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportLegacyReaderSettings",
		Method:      http.MethodGet,
		Path:        SettingsPath + "/export",
		Summary:     "Export legacy reader settings",
		Description: "Returns the reader's settings as a blob older reader clients can load",
		Tags:        []string{"Reader Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleExportLegacyReaderSettings)
}

// === DTOs ===

// ReaderSettingsResponse contains a reader's stored settings in API responses.
type ReaderSettingsResponse struct {
	UserID        string                `json:"user_id" doc:"Reader ID"`
	Settings      domain.ReaderSettings `json:"settings" doc:"Stored settings; unset fields are omitted"`
	Revision      string                `json:"revision,omitempty" doc:"Opaque revision, empty when nothing is stored"`
	SchemaVersion int                   `json:"schema_version" doc:"Settings schema version"`
	Stored        bool                  `json:"stored" doc:"Whether the reader has saved settings"`
	UpdatedAt     *time.Time            `json:"updated_at,omitempty" doc:"Last save time"`
}

// ReaderSettingsOutput wraps the settings response for Huma.
type ReaderSettingsOutput struct {
	ETag         string `header:"ETag"`
	CacheControl string `header:"Cache-Control"`
	Body         ReaderSettingsResponse
}

// GetReaderSettingsInput contains parameters for reading settings.
type GetReaderSettingsInput struct{}

// ResolvedReaderSettingsResponse contains settings with defaults applied.
type ResolvedReaderSettingsResponse struct {
	ReaderSettingsResponse
	Resolved      domain.Resolved `json:"resolved" doc:"Effective values with defaults applied"`
	EffectiveDark bool            `json:"effective_dark" doc:"True when night mode is on or the background is dark"`
}

// ResolvedReaderSettingsOutput wraps the resolved settings response for Huma.
type ResolvedReaderSettingsOutput struct {
	ETag         string `header:"ETag"`
	CacheControl string `header:"Cache-Control"`
	Body         ResolvedReaderSettingsResponse
}

// UpdateReaderSettingsRequest is the request body for a partial update.
type UpdateReaderSettingsRequest struct {
	FontSizePx      *float32 `json:"font_size_px,omitempty" doc:"Font size in px, (0, 200]"`
	LineHeightPx    *float32 `json:"line_height_px,omitempty" doc:"Line height in px, (0, 400]"`
	PaddingDp       *float32 `json:"padding_dp,omitempty" doc:"Page padding, [0, 200]"`
	NightMode       *bool    `json:"night_mode,omitempty" doc:"Night mode"`
	BackgroundColor *string  `json:"background_color,omitempty" doc:"Background color as #RGB, #RRGGBB, or #AARRGGBB"`
	Clear           []string `json:"clear,omitempty" doc:"Fields to unset"`
}

// UpdateReaderSettingsInput wraps the update request for Huma.
type UpdateReaderSettingsInput struct {
	IfMatch string `header:"If-Match" doc:"Revision the client last saw, or * to require stored settings"`
	Body    UpdateReaderSettingsRequest
}

// ReplaceReaderSettingsInput wraps the replace request for Huma.
type ReplaceReaderSettingsInput struct {
	IfMatch string `header:"If-Match" doc:"Revision the client last saw, or * to require stored settings"`
	Body    domain.ReaderSettings
}

// ResetReaderSettingsInput contains parameters for resetting settings.
type ResetReaderSettingsInput struct {
	IfMatch string `header:"If-Match" doc:"Revision the client last saw, or * to require stored settings"`
}

// ImportLegacyReaderSettingsInput carries a raw legacy blob.
type ImportLegacyReaderSettingsInput struct {
	ContentType string `header:"Content-Type" doc:"Blob content type"`
	RawBody     []byte
}

// ImportLegacyReaderSettingsResponse describes an import.
type ImportLegacyReaderSettingsResponse struct {
	ReaderSettingsResponse
	Shape       string   `json:"shape" doc:"Detected blob shape: v0, v1, or v2"`
	IgnoredKeys []string `json:"ignored_keys" doc:"Keys in the blob the server does not model"`
	Changed     bool     `json:"changed" doc:"Whether the import changed the stored settings"`
}

// ImportLegacyReaderSettingsOutput wraps the import response for Huma.
type ImportLegacyReaderSettingsOutput struct {
	ETag string `header:"ETag"`
	Body ImportLegacyReaderSettingsResponse
}

// ExportLegacyReaderSettingsResponse carries a legacy blob.
type ExportLegacyReaderSettingsResponse struct {
	Shape string `json:"shape" doc:"Blob shape, always v2"`
	Blob  string `json:"blob" doc:"Legacy settings blob as JSON text"`
}

// ExportLegacyReaderSettingsOutput wraps the export response for Huma.
type ExportLegacyReaderSettingsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         ExportLegacyReaderSettingsResponse
}

// === Handlers ===

func (s *Server) handleGetReaderSettings(ctx context.Context, _ *GetReaderSettingsInput) (*ReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.ReaderSettings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return settingsOutput(profile), nil
}

func (s *Server) handleGetResolvedReaderSettings(ctx context.Context, _ *GetReaderSettingsInput) (*ResolvedReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resolved, err := s.services.ReaderSettings.GetResolved(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ResolvedReaderSettingsOutput{
		ETag:         formatETag(resolved.Profile.Revision),
		CacheControl: CachePrivateRevalidate,
		Body: ResolvedReaderSettingsResponse{
			ReaderSettingsResponse: toSettingsResponse(resolved.Profile),
			Resolved:               resolved.Resolved,
			EffectiveDark:          resolved.EffectiveDark,
		},
	}, nil
}

func (s *Server) handleUpdateReaderSettings(ctx context.Context, input *UpdateReaderSettingsInput) (*ReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.ReaderSettings.Update(ctx, userID, service.UpdateReaderSettingsRequest{
		FontSizePx:      input.Body.FontSizePx,
		LineHeightPx:    input.Body.LineHeightPx,
		PaddingDp:       input.Body.PaddingDp,
		NightMode:       input.Body.NightMode,
		BackgroundColor: input.Body.BackgroundColor,
		Clear:           input.Body.Clear,
	}, parseIfMatch(input.IfMatch))
	if err != nil {
		return nil, err
	}

	return settingsOutput(profile), nil
}

func (s *Server) handleReplaceReaderSettings(ctx context.Context, input *ReplaceReaderSettingsInput) (*ReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.ReaderSettings.Replace(ctx, userID, input.Body, parseIfMatch(input.IfMatch))
	if err != nil {
		return nil, err
	}

	return settingsOutput(profile), nil
}

func (s *Server) handleResetReaderSettings(ctx context.Context, input *ResetReaderSettingsInput) (*ReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.ReaderSettings.Reset(ctx, userID, parseIfMatch(input.IfMatch))
	if err != nil {
		return nil, err
	}

	return settingsOutput(profile), nil
}

func (s *Server) handleImportLegacyReaderSettings(ctx context.Context, input *ImportLegacyReaderSettingsInput) (*ImportLegacyReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("legacy settings blob is required")
	}

	result, err := s.services.ReaderSettings.ImportLegacy(ctx, userID, input.RawBody)
	if err != nil {
		s.logger.WithUser(userID).Info("legacy import rejected",
			"content_type", input.ContentType,
			"body_size", len(input.RawBody),
			"error", err)
		return nil, err
	}

	return &ImportLegacyReaderSettingsOutput{
		ETag: formatETag(result.Profile.Revision),
		Body: ImportLegacyReaderSettingsResponse{
			ReaderSettingsResponse: toSettingsResponse(result.Profile),
			Shape:                  result.Shape,
			IgnoredKeys:            result.IgnoredKeys,
			Changed:                result.Changed,
		},
	}, nil
}

func (s *Server) handleExportLegacyReaderSettings(ctx context.Context, _ *GetReaderSettingsInput) (*ExportLegacyReaderSettingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := s.services.ReaderSettings.ExportLegacy(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ExportLegacyReaderSettingsOutput{
		CacheControl: CacheNoStore,
		Body: ExportLegacyReaderSettingsResponse{
			Shape: "v2",
			Blob:  string(blob),
		},
	}, nil
}

// === Helpers ===

func settingsOutput(p *domain.ReaderProfile) *ReaderSettingsOutput {
	return &ReaderSettingsOutput{
		ETag:         formatETag(p.Revision),
		CacheControl: CachePrivateRevalidate,
		Body:         toSettingsResponse(p),
	}
}

func toSettingsResponse(p *domain.ReaderProfile) ReaderSettingsResponse {
	resp := ReaderSettingsResponse{
		UserID:        p.UserID,
		Settings:      p.Settings,
		Revision:      p.Revision,
		SchemaVersion: p.SchemaVersion,
		Stored:        p.IsStored(),
	}
	if p.IsStored() {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// formatETag quotes a revision as a strong entity tag. Unsaved settings have none.
func formatETag(revision string) string {
	if revision == "" {
		return ""
	}
	return `"` + revision + `"`
}

// parseIfMatch accepts a quoted or bare revision, a weak tag, or "*".
// Only the first tag of a list is used.
func parseIfMatch(header string) string {
	tag, _, _ := strings.Cut(header, ",")
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}
