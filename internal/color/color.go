// Package color implements the hex color model used by badge styling:
// parsing and formatting of #rrggbb values and the brightness shift that
// derives gradient stop pairs from a single base color.
package color

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// GradientShift is the brightness percentage used to derive the lighter and
// darker stops of background and glyph gradients.
const GradientShift = 15

const hexDigits = "0123456789abcdefABCDEF"

// ErrMalformedHex is returned when a string is not a 3 or 6 digit hex color.
var ErrMalformedHex = errors.New("malformed hex color")

// RGB is a 24-bit color with one byte per channel.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses a hex color. A single leading '#' is optional and only one
// marker character is stripped. Both #rgb and #rrggbb forms are accepted.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	body := strings.TrimPrefix(s, "#")
	if (len(body) != 3 && len(body) != 6) || strings.Trim(body, hexDigits) != "" {
		return RGB{}, fmt.Errorf("%w: %q", ErrMalformedHex, s)
	}
	c, err := colorful.Hex("#" + body)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrMalformedHex, s)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// MustParseHex is like ParseHex but panics on malformed input. It is meant
// for package-level constants.
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the canonical lowercase #rrggbb form.
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

// String implements fmt.Stringer.
func (c RGB) String() string { return c.Hex() }

// Adjust scales every channel by (1 + percent/100), rounding to the nearest
// integer and clamping to [0, 255]. Positive percentages lighten, negative
// ones darken.
func (c RGB) Adjust(percent float64) RGB {
	f := 1 + percent/100
	return RGB{
		R: scaleChannel(c.R, f),
		G: scaleChannel(c.G, f),
		B: scaleChannel(c.B, f),
	}
}

// Lighter and Darker return the gradient stop pair for c.
func (c RGB) Lighter() RGB { return c.Adjust(GradientShift) }
func (c RGB) Darker() RGB  { return c.Adjust(-GradientShift) }

func scaleChannel(v uint8, f float64) uint8 {
	x := math.Round(float64(v) * f)
	switch {
	case x > 255:
		return 255
	case x < 0:
		return 0
	}
	return uint8(x)
}

// HexToRGB converts a hex string to its channel values.
func HexToRGB(hex string) (r, g, b uint8, err error) {
	c, err := ParseHex(hex)
	if err != nil {
		return 0, 0, 0, err
	}
	return c.R, c.G, c.B, nil
}

// RGBToHex formats channel values as a zero-padded #rrggbb string.
func RGBToHex(r, g, b uint8) string {
	return RGB{R: r, G: g, B: b}.Hex()
}

// AdjustBrightness shifts hex by percent and returns the result as hex.
func AdjustBrightness(hex string, percent float64) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return c.Adjust(percent).Hex(), nil
}

// Normalize returns the canonical #rrggbb form of hex.
func Normalize(hex string) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}
