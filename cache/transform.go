package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a background colour.
type RGB struct {
	R, G, B uint8
}

// White is the default background.
var White = RGB{R: 255, G: 255, B: 255}

// String encodes the colour as six lowercase hex digits ("ffffff").
func (c RGB) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// WatermarkSpec describes a watermark composited onto the derivative.
// Width and Height of zero mean "not set". Position must not contain "_"
// ("bottom-right", not "bottom_right").
type WatermarkSpec struct {
	File     string
	Opacity  int
	Position string
	Width    int
	Height   int
}

// TransformSpec is the set of parameters a derivative is rendered with.
//
// Width and Height of zero mean "not set"; they select the dimension
// segment of the cache path and are not part of the key. Specs differing
// only in Width or Height share a key and are kept apart by that path
// segment. A caller that stores by key alone must add the dimensions
// itself. An Angle of zero means "not rotated". Values are compared and
// hashed by value, so a spec must not change once a key has been derived
// from it.
type TransformSpec struct {
	KeepAspectRatio  bool
	KeepFrame        bool
	KeepTransparency bool
	ConstrainOnly    bool
	Background       RGB
	Angle            int
	Quality          int
	Width            int
	Height           int
	Watermark        *WatermarkSpec
}

// DefaultTransform returns the parameters used when nothing is overridden.
func DefaultTransform() TransformSpec {
	return TransformSpec{
		KeepAspectRatio:  true,
		KeepFrame:        true,
		KeepTransparency: true,
		Background:       White,
		Quality:          90,
	}
}

// Validate checks value ranges.
func (t TransformSpec) Validate() error {
	if t.Quality < 0 || t.Quality > 100 {
		return fmt.Errorf("%w: quality %d out of range 0-100", ErrInvalidTransform, t.Quality)
	}
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidTransform, t.Width, t.Height)
	}
	if w := t.Watermark; w != nil {
		if w.File == "" {
			return fmt.Errorf("%w: watermark without file", ErrInvalidTransform)
		}
		if w.Opacity < 0 || w.Opacity > 100 {
			return fmt.Errorf("%w: watermark opacity %d out of range 0-100", ErrInvalidTransform, w.Opacity)
		}
		if w.Width < 0 || w.Height < 0 {
			return fmt.Errorf("%w: negative watermark dimensions %dx%d", ErrInvalidTransform, w.Width, w.Height)
		}
		if strings.Contains(w.Position, keySeparator) {
			return fmt.Errorf("%w: watermark position %q contains %q", ErrInvalidTransform, w.Position, keySeparator)
		}
	}
	return nil
}

// Dimensions returns the "WIDTHxHEIGHT" path segment, or "" when neither
// dimension is set.
func (t TransformSpec) Dimensions() string {
	if t.Width == 0 && t.Height == 0 {
		return ""
	}
	return optional(t.Width) + "x" + optional(t.Height)
}

// optional renders an unset (zero) integer as the empty string.
func optional(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// ParseRGB parses "ffffff", "#ffffff", "#fff" or "255,255,255".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("%w: colour %q", ErrInvalidTransform, s)
		}
		var c [3]uint8
		for i, part := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return RGB{}, fmt.Errorf("%w: colour %q", ErrInvalidTransform, s)
			}
			c[i] = uint8(n)
		}
		return RGB{R: c[0], G: c[1], B: c[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: colour %q", ErrInvalidTransform, s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: colour %q", ErrInvalidTransform, s)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// MarshalText encodes the colour as six hex digits.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any form ParseRGB does.
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseRGB(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
