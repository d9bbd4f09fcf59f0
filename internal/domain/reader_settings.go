// Package domain defines reader settings, stored profiles, and application defaults.
package domain

// ReaderSettings holds a reader's display preferences.
// Every field is optional: nil means "unset, use the application default".
// The type performs no validation; callers decide what values are acceptable.
type ReaderSettings struct {
	FontSizePx   *float32 `json:"font_size_px,omitempty"`
	LineHeightPx *float32 `json:"line_height_px,omitempty"`

	// PaddingDp is a plain number rather than a density-scaled unit so it
	// survives serialization; clients convert to their own units.
	PaddingDp *float32 `json:"padding_dp,omitempty"`

	NightMode       *bool   `json:"night_mode,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
}

// Field names as they appear in JSON, used for change tracking.
const (
	FieldFontSizePx      = "font_size_px"
	FieldLineHeightPx    = "line_height_px"
	FieldPaddingDp       = "padding_dp"
	FieldNightMode       = "night_mode"
	FieldBackgroundColor = "background_color"
)

// ReaderSettingsFields lists every settings field in declaration order.
var ReaderSettingsFields = []string{
	FieldFontSizePx,
	FieldLineHeightPx,
	FieldPaddingDp,
	FieldNightMode,
	FieldBackgroundColor,
}

// NewReaderSettings returns settings with every field unset.
func NewReaderSettings() ReaderSettings {
	return ReaderSettings{}
}

// NewReaderSettingsWith builds settings from all five fields.
// Any argument may be nil. Pointed-to values are copied.
func NewReaderSettingsWith(fontSizePx, lineHeightPx, paddingDp *float32, nightMode *bool, backgroundColor *string) ReaderSettings {
	return ReaderSettings{
		FontSizePx:      copyPtr(fontSizePx),
		LineHeightPx:    copyPtr(lineHeightPx),
		PaddingDp:       copyPtr(paddingDp),
		NightMode:       copyPtr(nightMode),
		BackgroundColor: copyPtr(backgroundColor),
	}
}

// FontSize returns the font size and whether it is set.
func (s *ReaderSettings) FontSize() (float32, bool) { return deref(s.FontSizePx) }

// SetFontSizePx sets the font size.
func (s *ReaderSettings) SetFontSizePx(v float32) { s.FontSizePx = &v }

// ClearFontSizePx unsets the font size.
func (s *ReaderSettings) ClearFontSizePx() { s.FontSizePx = nil }

// LineHeight returns the line height and whether it is set.
func (s *ReaderSettings) LineHeight() (float32, bool) { return deref(s.LineHeightPx) }

// SetLineHeightPx sets the line height.
func (s *ReaderSettings) SetLineHeightPx(v float32) { s.LineHeightPx = &v }

// ClearLineHeightPx unsets the line height.
func (s *ReaderSettings) ClearLineHeightPx() { s.LineHeightPx = nil }

// Padding returns the page padding and whether it is set.
func (s *ReaderSettings) Padding() (float32, bool) { return deref(s.PaddingDp) }

// SetPaddingDp sets the page padding.
func (s *ReaderSettings) SetPaddingDp(v float32) { s.PaddingDp = &v }

// ClearPaddingDp unsets the page padding.
func (s *ReaderSettings) ClearPaddingDp() { s.PaddingDp = nil }

// Night returns the night mode flag and whether it is set.
func (s *ReaderSettings) Night() (bool, bool) { return deref(s.NightMode) }

// SetNightMode sets night mode.
func (s *ReaderSettings) SetNightMode(v bool) { s.NightMode = &v }

// ClearNightMode unsets night mode.
func (s *ReaderSettings) ClearNightMode() { s.NightMode = nil }

// Background returns the background color and whether it is set.
func (s *ReaderSettings) Background() (string, bool) { return deref(s.BackgroundColor) }

// SetBackgroundColor sets the background color string as given.
func (s *ReaderSettings) SetBackgroundColor(v string) { s.BackgroundColor = &v }

// ClearBackgroundColor unsets the background color.
func (s *ReaderSettings) ClearBackgroundColor() { s.BackgroundColor = nil }

// Clear unsets the named field. Unknown names are ignored.
func (s *ReaderSettings) Clear(field string) {
	switch field {
	case FieldFontSizePx:
		s.ClearFontSizePx()
	case FieldLineHeightPx:
		s.ClearLineHeightPx()
	case FieldPaddingDp:
		s.ClearPaddingDp()
	case FieldNightMode:
		s.ClearNightMode()
	case FieldBackgroundColor:
		s.ClearBackgroundColor()
	}
}

// Clone returns a deep copy that shares no pointers with s.
func (s ReaderSettings) Clone() ReaderSettings {
	return NewReaderSettingsWith(s.FontSizePx, s.LineHeightPx, s.PaddingDp, s.NightMode, s.BackgroundColor)
}

// IsEmpty reports whether no field is set.
func (s ReaderSettings) IsEmpty() bool {
	return s.FontSizePx == nil &&
		s.LineHeightPx == nil &&
		s.PaddingDp == nil &&
		s.NightMode == nil &&
		s.BackgroundColor == nil
}

// Equal reports whether both settings have the same fields set to the same values.
func (s ReaderSettings) Equal(other ReaderSettings) bool {
	return len(s.Diff(other)) == 0
}

// Merge returns a copy of s with every field set in patch applied on top.
// Unset fields in patch leave the corresponding field of s untouched.
func (s ReaderSettings) Merge(patch ReaderSettings) ReaderSettings {
	out := s.Clone()
	if patch.FontSizePx != nil {
		out.SetFontSizePx(*patch.FontSizePx)
	}
	if patch.LineHeightPx != nil {
		out.SetLineHeightPx(*patch.LineHeightPx)
	}
	if patch.PaddingDp != nil {
		out.SetPaddingDp(*patch.PaddingDp)
	}
	if patch.NightMode != nil {
		out.SetNightMode(*patch.NightMode)
	}
	if patch.BackgroundColor != nil {
		out.SetBackgroundColor(*patch.BackgroundColor)
	}
	return out
}

// Diff returns the JSON names of fields whose presence or value differ.
func (s ReaderSettings) Diff(other ReaderSettings) []string {
	var changed []string
	if !ptrEqual(s.FontSizePx, other.FontSizePx) {
		changed = append(changed, FieldFontSizePx)
	}
	if !ptrEqual(s.LineHeightPx, other.LineHeightPx) {
		changed = append(changed, FieldLineHeightPx)
	}
	if !ptrEqual(s.PaddingDp, other.PaddingDp) {
		changed = append(changed, FieldPaddingDp)
	}
	if !ptrEqual(s.NightMode, other.NightMode) {
		changed = append(changed, FieldNightMode)
	}
	if !ptrEqual(s.BackgroundColor, other.BackgroundColor) {
		changed = append(changed, FieldBackgroundColor)
	}
	return changed
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
