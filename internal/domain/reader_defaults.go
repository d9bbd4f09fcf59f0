package domain

// Defaults are the values used for settings a reader has not set.
type Defaults struct {
	FontSizePx      float32 `json:"font_size_px" env:"FONT_SIZE_PX" envDefault:"24"`
	LineHeightPx    float32 `json:"line_height_px" env:"LINE_HEIGHT_PX" envDefault:"43"`
	PaddingDp       float32 `json:"padding_dp" env:"PADDING_DP" envDefault:"16"`
	NightMode       bool    `json:"night_mode" env:"NIGHT_MODE" envDefault:"false"`
	BackgroundColor string  `json:"background_color,omitempty" env:"BACKGROUND_COLOR"`
}

// NewDefaults returns the built-in reading defaults.
func NewDefaults() Defaults {
	return Defaults{
		FontSizePx:   24,
		LineHeightPx: 43,
		PaddingDp:    16,
	}
}

// Resolved is a settings snapshot with every unset field filled from defaults.
type Resolved struct {
	FontSizePx      float32 `json:"font_size_px"`
	LineHeightPx    float32 `json:"line_height_px"`
	PaddingDp       float32 `json:"padding_dp"`
	NightMode       bool    `json:"night_mode"`
	BackgroundColor string  `json:"background_color,omitempty"`

	// DefaultedFields names the fields that came from defaults.
	DefaultedFields []string `json:"defaulted_fields"`
}

// Resolve fills every unset field of s from d.
func (d Defaults) Resolve(s ReaderSettings) Resolved {
	r := Resolved{DefaultedFields: []string{}}

	if v, ok := s.FontSize(); ok {
		r.FontSizePx = v
	} else {
		r.FontSizePx = d.FontSizePx
		r.DefaultedFields = append(r.DefaultedFields, FieldFontSizePx)
	}

	if v, ok := s.LineHeight(); ok {
		r.LineHeightPx = v
	} else {
		r.LineHeightPx = d.LineHeightPx
		r.DefaultedFields = append(r.DefaultedFields, FieldLineHeightPx)
	}

	if v, ok := s.Padding(); ok {
		r.PaddingDp = v
	} else {
		r.PaddingDp = d.PaddingDp
		r.DefaultedFields = append(r.DefaultedFields, FieldPaddingDp)
	}

	if v, ok := s.Night(); ok {
		r.NightMode = v
	} else {
		r.NightMode = d.NightMode
		r.DefaultedFields = append(r.DefaultedFields, FieldNightMode)
	}

	if v, ok := s.Background(); ok {
		r.BackgroundColor = v
	} else {
		r.BackgroundColor = d.BackgroundColor
		r.DefaultedFields = append(r.DefaultedFields, FieldBackgroundColor)
	}

	return r
}
