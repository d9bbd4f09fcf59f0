package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(v float32) *float32 { return &v }
func boolp(v bool) *bool     { return &v }
func strp(v string) *string  { return &v }

func assertAllUnset(t *testing.T, s ReaderSettings) {
	t.Helper()
	_, ok := s.FontSize()
	assert.False(t, ok, "font size")
	_, ok = s.LineHeight()
	assert.False(t, ok, "line height")
	_, ok = s.Padding()
	assert.False(t, ok, "padding")
	_, ok = s.Night()
	assert.False(t, ok, "night mode")
	_, ok = s.Background()
	assert.False(t, ok, "background color")
}

func TestNewReaderSettings_AllUnset(t *testing.T) {
	s := NewReaderSettings()

	assertAllUnset(t, s)
	assert.True(t, s.IsEmpty())
}

func TestNewReaderSettingsWith_RoundTrip(t *testing.T) {
	s := NewReaderSettingsWith(f32(16), f32(24), f32(8), boolp(false), strp("#FFFFFF"))

	font, ok := s.FontSize()
	require.True(t, ok)
	assert.Equal(t, float32(16), font)

	line, ok := s.LineHeight()
	require.True(t, ok)
	assert.Equal(t, float32(24), line)

	padding, ok := s.Padding()
	require.True(t, ok)
	assert.Equal(t, float32(8), padding)

	night, ok := s.Night()
	require.True(t, ok)
	assert.False(t, night)

	bg, ok := s.Background()
	require.True(t, ok)
	assert.Equal(t, "#FFFFFF", bg)
}

func TestNewReaderSettingsWith_AllNil(t *testing.T) {
	s := NewReaderSettingsWith(nil, nil, nil, nil, nil)

	assertAllUnset(t, s)
}

func TestNewReaderSettingsWith_CopiesArguments(t *testing.T) {
	font := float32(18)
	s := NewReaderSettingsWith(&font, nil, nil, nil, nil)

	font = 99
	got, _ := s.FontSize()
	assert.Equal(t, float32(18), got)
}

func TestSetNightMode_LeavesOthersUnset(t *testing.T) {
	s := NewReaderSettings()
	s.SetNightMode(true)

	night, ok := s.Night()
	require.True(t, ok)
	assert.True(t, night)

	_, ok = s.FontSize()
	assert.False(t, ok)
	_, ok = s.LineHeight()
	assert.False(t, ok)
	_, ok = s.Padding()
	assert.False(t, ok)
	_, ok = s.Background()
	assert.False(t, ok)
}

func TestSetters_FieldIndependence(t *testing.T) {
	base := NewReaderSettingsWith(f32(16), f32(24), f32(8), boolp(false), strp("#FFFFFF"))

	tests := []struct {
		name  string
		field string
		set   func(*ReaderSettings)
	}{
		{"font", FieldFontSizePx, func(s *ReaderSettings) { s.SetFontSizePx(30) }},
		{"line", FieldLineHeightPx, func(s *ReaderSettings) { s.SetLineHeightPx(50) }},
		{"padding", FieldPaddingDp, func(s *ReaderSettings) { s.SetPaddingDp(-4) }},
		{"night", FieldNightMode, func(s *ReaderSettings) { s.SetNightMode(true) }},
		{"background", FieldBackgroundColor, func(s *ReaderSettings) { s.SetBackgroundColor("not a color") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.set(&s)
			assert.Equal(t, []string{tt.field}, base.Diff(s))
		})
	}
}

func TestSetters_LastWriteWins(t *testing.T) {
	s := NewReaderSettings()
	s.SetFontSizePx(12)
	s.SetFontSizePx(20)
	s.SetBackgroundColor("#000000")
	s.SetBackgroundColor("#FF112233")

	font, _ := s.FontSize()
	assert.Equal(t, float32(20), font)
	bg, _ := s.Background()
	assert.Equal(t, "#FF112233", bg)
}

func TestSetters_AcceptOutOfRangeValues(t *testing.T) {
	s := NewReaderSettings()
	s.SetFontSizePx(-10)
	s.SetPaddingDp(100000)

	font, ok := s.FontSize()
	require.True(t, ok)
	assert.Equal(t, float32(-10), font)
	padding, ok := s.Padding()
	require.True(t, ok)
	assert.Equal(t, float32(100000), padding)
}

func TestClear(t *testing.T) {
	s := NewReaderSettingsWith(f32(16), f32(24), f32(8), boolp(true), strp("#FFFFFF"))

	for _, field := range ReaderSettingsFields {
		s.Clear(field)
	}
	s.Clear("unknown")

	assertAllUnset(t, s)
}

func TestClone_IsIndependent(t *testing.T) {
	orig := NewReaderSettingsWith(f32(16), nil, nil, boolp(false), strp("#FFFFFF"))
	c := orig.Clone()

	c.SetFontSizePx(40)
	c.SetNightMode(true)
	c.SetBackgroundColor("#000000")

	font, _ := orig.FontSize()
	assert.Equal(t, float32(16), font)
	night, _ := orig.Night()
	assert.False(t, night)
	bg, _ := orig.Background()
	assert.Equal(t, "#FFFFFF", bg)
}

func TestMerge(t *testing.T) {
	base := NewReaderSettingsWith(f32(16), f32(24), nil, boolp(false), nil)
	patch := NewReaderSettingsWith(nil, f32(30), f32(12), nil, strp("#FF000000"))

	merged := base.Merge(patch)

	want := NewReaderSettingsWith(f32(16), f32(30), f32(12), boolp(false), strp("#FF000000"))
	assert.True(t, want.Equal(merged), "diff: %v", want.Diff(merged))

	// Base untouched.
	_, ok := base.Padding()
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	a := NewReaderSettingsWith(f32(16), nil, f32(8), boolp(true), nil)
	b := NewReaderSettingsWith(f32(16), f32(24), f32(9), boolp(true), nil)

	assert.Equal(t, []string{FieldLineHeightPx, FieldPaddingDp}, a.Diff(b))
	assert.Empty(t, a.Diff(a.Clone()))
	assert.True(t, NewReaderSettings().Equal(NewReaderSettingsWith(nil, nil, nil, nil, nil)))
}

func TestNewReaderProfile(t *testing.T) {
	p := NewReaderProfile("user-123")

	assert.Equal(t, "user-123", p.UserID)
	assert.True(t, p.Settings.IsEmpty())
	assert.Equal(t, ReaderSettingsSchemaVersion, p.SchemaVersion)
	assert.False(t, p.IsStored())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestReaderProfile_Clone(t *testing.T) {
	p := NewReaderProfile("user-123")
	p.Settings.SetFontSizePx(20)
	p.Revision = "rev-1"

	c := p.Clone()
	c.Settings.SetFontSizePx(30)

	font, _ := p.Settings.FontSize()
	assert.Equal(t, float32(20), font)
	assert.Equal(t, "rev-1", c.Revision)
}
