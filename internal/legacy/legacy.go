// Package legacy reads and writes the settings blobs persisted by earlier
// reader clients, and migrates them to the current ReaderSettings shape.
//
// Three blob shapes exist in the wild, all camelCase objects:
//
//	v0: {"fontSizePx", "lineHeightPx", "padding"}
//	v1: {"fontSizePx", "lineHeightPx", "paddingDp", "nightMode"}
//	v2: v1 + {"backgroundColor"}
//
// Later clients also wrote keys the server does not model ("loadImages",
// "isVerticalMode"); those are reported as ignored rather than rejected.
// A backgroundColor string that does not parse as a color is dropped and
// reported the same way, since old clients fell back to the theme color.
package legacy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/listenupapp/listenup-reader/internal/color"
	"github.com/listenupapp/listenup-reader/internal/domain"
)

// Shape identifies which historical blob layout was decoded.
type Shape int

const (
	// ShapeV0 is the three-field layout with a "padding" key.
	ShapeV0 Shape = iota
	// ShapeV1 adds "nightMode" and renames padding to "paddingDp".
	ShapeV1
	// ShapeV2 adds "backgroundColor".
	ShapeV2
)

func (s Shape) String() string {
	switch s {
	case ShapeV0:
		return "v0"
	case ShapeV1:
		return "v1"
	case ShapeV2:
		return "v2"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Blob keys.
const (
	keyFontSize        = "fontSizePx"
	keyLineHeight      = "lineHeightPx"
	keyPaddingV0       = "padding"
	keyPadding         = "paddingDp"
	keyNightMode       = "nightMode"
	keyBackgroundColor = "backgroundColor"
)

var knownKeys = map[string]bool{
	keyFontSize:        true,
	keyLineHeight:      true,
	keyPaddingV0:       true,
	keyPadding:         true,
	keyNightMode:       true,
	keyBackgroundColor: true,
}

var (
	// ErrMalformed is returned when the blob is not a JSON object.
	ErrMalformed = errors.New("malformed settings blob")
	// ErrTypeMismatch is returned when a known key holds the wrong JSON type.
	ErrTypeMismatch = errors.New("settings field has wrong type")
)

// Result is the outcome of decoding a legacy blob.
type Result struct {
	Settings    domain.ReaderSettings
	Shape       Shape
	IgnoredKeys []string
}

// Detect reports the blob shape without decoding values.
// Blobs that carry none of the distinguishing keys are treated as current.
func Detect(blob []byte) (Shape, error) {
	obj, err := parseObject(blob)
	if err != nil {
		return 0, err
	}
	return detect(obj), nil
}

func detect(obj gjson.Result) Shape {
	switch {
	case obj.Get(keyBackgroundColor).Exists():
		return ShapeV2
	case obj.Get(keyPadding).Exists(), obj.Get(keyNightMode).Exists():
		return ShapeV1
	case obj.Get(keyPaddingV0).Exists():
		return ShapeV0
	default:
		return ShapeV2
	}
}

// Decode migrates a legacy blob to the current settings shape.
// Missing keys and explicit nulls both decode as unset fields.
func Decode(blob []byte) (*Result, error) {
	obj, err := parseObject(blob)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Settings: domain.NewReaderSettings(),
		Shape:    detect(obj),
	}
	s := &res.Settings

	if v, ok, err := number(obj, keyFontSize); err != nil {
		return nil, err
	} else if ok {
		s.SetFontSizePx(v)
	}

	if v, ok, err := number(obj, keyLineHeight); err != nil {
		return nil, err
	} else if ok {
		s.SetLineHeightPx(v)
	}

	// paddingDp supersedes the v0 key when a blob somehow carries both.
	paddingKey := keyPadding
	if !obj.Get(keyPadding).Exists() {
		paddingKey = keyPaddingV0
	}
	if v, ok, err := number(obj, paddingKey); err != nil {
		return nil, err
	} else if ok {
		s.SetPaddingDp(v)
	}

	if night := obj.Get(keyNightMode); present(night) {
		if night.Type != gjson.True && night.Type != gjson.False {
			return nil, mismatch(keyNightMode, "boolean", night)
		}
		s.SetNightMode(night.Bool())
	}

	if bg := obj.Get(keyBackgroundColor); present(bg) {
		if bg.Type != gjson.String {
			return nil, mismatch(keyBackgroundColor, "string", bg)
		}
		if color.Valid(bg.String()) {
			s.SetBackgroundColor(bg.String())
		} else {
			res.IgnoredKeys = append(res.IgnoredKeys, keyBackgroundColor)
		}
	}

	obj.ForEach(func(key, _ gjson.Result) bool {
		if !knownKeys[key.String()] {
			res.IgnoredKeys = append(res.IgnoredKeys, key.String())
		}
		return true
	})
	sort.Strings(res.IgnoredKeys)

	return res, nil
}

// Encode writes settings in the v2 blob layout. Unset fields are omitted.
func Encode(s domain.ReaderSettings) ([]byte, error) {
	blob := []byte("{}")
	var err error

	set := func(key string, value any) {
		if err != nil {
			return
		}
		blob, err = sjson.SetBytes(blob, key, value)
	}

	if v, ok := s.FontSize(); ok {
		set(keyFontSize, v)
	}
	if v, ok := s.LineHeight(); ok {
		set(keyLineHeight, v)
	}
	if v, ok := s.Padding(); ok {
		set(keyPadding, v)
	}
	if v, ok := s.Night(); ok {
		set(keyNightMode, v)
	}
	if v, ok := s.Background(); ok {
		set(keyBackgroundColor, v)
	}

	if err != nil {
		return nil, fmt.Errorf("encode settings blob: %w", err)
	}
	return blob, nil
}

func parseObject(blob []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(blob) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	obj := gjson.ParseBytes(blob)
	if !obj.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected object, got %s", ErrMalformed, obj.Type)
	}
	return obj, nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func number(obj gjson.Result, key string) (float32, bool, error) {
	r := obj.Get(key)
	if !present(r) {
		return 0, false, nil
	}
	if r.Type != gjson.Number {
		return 0, false, mismatch(key, "number", r)
	}
	return float32(r.Float()), true, nil
}

func mismatch(key, want string, got gjson.Result) error {
	return fmt.Errorf("%w: %s must be a %s, got %s", ErrTypeMismatch, key, want, got.Type)
}
