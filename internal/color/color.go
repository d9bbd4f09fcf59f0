// Package color parses and formats the hex color strings used for reader backgrounds.
package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColor is returned for strings that are not #RGB, #RRGGBB or #AARRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// ARGB is a packed 32-bit color with alpha in the high byte.
type ARGB uint32

// Parse converts a hex color string to ARGB.
// Accepted forms: #RGB, #RRGGBB (opaque) and #AARRGGBB. Case-insensitive.
func Parse(s string) (ARGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("%w: %q must start with #", ErrInvalidColor, s)
	}
	hex := s[1:]

	switch len(hex) {
	case 3:
		// Expand #RGB to #RRGGBB.
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		fallthrough
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return ARGB(0xFF000000 | uint32(v)), nil
	case 8:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return ARGB(uint32(v)), nil
	default:
		return 0, fmt.Errorf("%w: %q has %d hex digits", ErrInvalidColor, s, len(hex))
	}
}

// Normalize parses s and formats it in canonical #AARRGGBB form.
func Normalize(s string) (string, error) {
	c, err := Parse(s)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// Valid reports whether s parses as a color.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Hex formats the color as #AARRGGBB with upper-case digits.
func (c ARGB) Hex() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// Alpha returns the alpha channel.
func (c ARGB) Alpha() uint8 { return uint8(c >> 24) }

// RGB returns the color channels.
func (c ARGB) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Luminance returns the approximate relative luminance in [0, 1].
// Uses the Rec. 709 channel weights without gamma correction.
func (c ARGB) Luminance() float64 {
	r, g, b := c.RGB()
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255
}

// IsDark reports whether text on this background should be light.
func (c ARGB) IsDark() bool {
	return c.Luminance() < 0.5
}
