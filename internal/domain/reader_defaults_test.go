package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	d := NewDefaults()

	assert.Equal(t, float32(24), d.FontSizePx)
	assert.Equal(t, float32(43), d.LineHeightPx)
	assert.Equal(t, float32(16), d.PaddingDp)
	assert.False(t, d.NightMode)
	assert.Empty(t, d.BackgroundColor)
}

func TestResolve_EmptySettingsUseDefaults(t *testing.T) {
	r := NewDefaults().Resolve(NewReaderSettings())

	assert.Equal(t, float32(24), r.FontSizePx)
	assert.Equal(t, float32(43), r.LineHeightPx)
	assert.Equal(t, float32(16), r.PaddingDp)
	assert.False(t, r.NightMode)
	assert.Empty(t, r.BackgroundColor)
	assert.Equal(t, ReaderSettingsFields, r.DefaultedFields)
}

func TestResolve_SetFieldsWin(t *testing.T) {
	s := NewReaderSettings()
	s.SetFontSizePx(30)
	s.SetNightMode(true)

	r := NewDefaults().Resolve(s)

	assert.Equal(t, float32(30), r.FontSizePx)
	assert.True(t, r.NightMode)
	assert.Equal(t, float32(43), r.LineHeightPx)
	assert.Equal(t, []string{FieldLineHeightPx, FieldPaddingDp, FieldBackgroundColor}, r.DefaultedFields)
}

func TestResolve_FullySetHasNoDefaultedFields(t *testing.T) {
	s := NewReaderSettingsWith(f32(16), f32(24), f32(8), boolp(false), strp("#FFFFFFFF"))

	r := NewDefaults().Resolve(s)

	assert.Empty(t, r.DefaultedFields)
	assert.NotNil(t, r.DefaultedFields)
	assert.Equal(t, "#FFFFFFFF", r.BackgroundColor)
}
