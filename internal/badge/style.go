package badge

import (
	"errors"
	"fmt"

	"github.com/sydlexius/glyphbadge/internal/color"
)

// BackgroundStyle selects how the rounded background is painted.
type BackgroundStyle string

// Background styles.
const (
	BackgroundGradient BackgroundStyle = "gradient"
	BackgroundFlat     BackgroundStyle = "flat"
	BackgroundNone     BackgroundStyle = "none"
)

// BackgroundStyles lists the recognized background styles.
var BackgroundStyles = []BackgroundStyle{BackgroundGradient, BackgroundFlat, BackgroundNone}

// Valid reports whether s is a recognized background style.
func (s BackgroundStyle) Valid() bool {
	switch s {
	case BackgroundGradient, BackgroundFlat, BackgroundNone:
		return true
	}
	return false
}

// GlyphStyle selects how the glyph itself is painted.
type GlyphStyle string

// Glyph styles.
const (
	GlyphGlass    GlyphStyle = "glass"
	GlyphGradient GlyphStyle = "gradient"
	GlyphFlat     GlyphStyle = "flat"
)

// GlyphStyles lists the recognized glyph styles.
var GlyphStyles = []GlyphStyle{GlyphGlass, GlyphGradient, GlyphFlat}

// Valid reports whether s is a recognized glyph style.
func (s GlyphStyle) Valid() bool {
	switch s {
	case GlyphGlass, GlyphGradient, GlyphFlat:
		return true
	}
	return false
}

// ErrInvalidStyle is wrapped by Style.Validate failures.
var ErrInvalidStyle = errors.New("invalid style")

// ErrInvalidColor is returned by Build when a style color cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// Scale bounds accepted by Validate, in percent.
const (
	MinScale = 1
	MaxScale = 200
)

// Style is the complete set of presentation parameters for one composite.
// It is a value type: changes are made with With and produce a new Style.
type Style struct {
	BackgroundColor string          `yaml:"background_color" json:"background_color"`
	GlyphColor      string          `yaml:"glyph_color" json:"glyph_color"`
	Scale           int             `yaml:"scale" json:"scale"`
	Rotation        int             `yaml:"rotation" json:"rotation"`
	Background      BackgroundStyle `yaml:"background_style" json:"background_style"`
	Glyph           GlyphStyle      `yaml:"glyph_style" json:"glyph_style"`
	CornerRadius    float64         `yaml:"corner_radius" json:"corner_radius"`
}

// DefaultStyle returns the initial style of a new session.
func DefaultStyle() Style {
	return Style{
		BackgroundColor: "#6155F5",
		GlyphColor:      "#FFFFFF",
		Scale:           70,
		Rotation:        0,
		Background:      BackgroundGradient,
		Glyph:           GlyphGlass,
		CornerRadius:    0.25,
	}
}

// Validate checks user supplied values. Unknown style names are not errors
// here; Build falls back to the defaults for them.
func (s Style) Validate() error {
	if _, err := color.ParseHex(s.BackgroundColor); err != nil {
		return fmt.Errorf("%w: background color: %w", ErrInvalidStyle, err)
	}
	if _, err := color.ParseHex(s.GlyphColor); err != nil {
		return fmt.Errorf("%w: glyph color: %w", ErrInvalidStyle, err)
	}
	if s.Scale < MinScale || s.Scale > MaxScale {
		return fmt.Errorf("%w: scale %d outside %d..%d", ErrInvalidStyle, s.Scale, MinScale, MaxScale)
	}
	if s.CornerRadius < 0 || s.CornerRadius > 1 {
		return fmt.Errorf("%w: corner radius %g outside 0..1", ErrInvalidStyle, s.CornerRadius)
	}
	return nil
}

// Normalized maps unknown style names to their fallbacks, reduces the
// rotation modulo 360 and clamps the corner radius to [0, 1].
func (s Style) Normalized() Style {
	if !s.Background.Valid() {
		s.Background = BackgroundGradient
	}
	if !s.Glyph.Valid() {
		s.Glyph = GlyphGlass
	}
	s.Rotation %= 360
	s.CornerRadius = min(max(s.CornerRadius, 0), 1)
	return s
}

// Delta is one change to a style, typically produced by a single control.
type Delta func(*Style)

// With returns a copy of s with the deltas applied in order.
func (s Style) With(deltas ...Delta) Style {
	for _, d := range deltas {
		d(&s)
	}
	return s
}

// WithBackgroundColor sets the background color.
func WithBackgroundColor(hex string) Delta {
	return func(s *Style) { s.BackgroundColor = hex }
}

// WithGlyphColor sets the glyph color.
func WithGlyphColor(hex string) Delta {
	return func(s *Style) { s.GlyphColor = hex }
}

// WithScale sets the glyph scale percentage.
func WithScale(percent int) Delta {
	return func(s *Style) { s.Scale = percent }
}

// WithRotation sets the glyph rotation in degrees.
func WithRotation(degrees int) Delta {
	return func(s *Style) { s.Rotation = degrees }
}

// WithBackgroundStyle sets the background style.
func WithBackgroundStyle(b BackgroundStyle) Delta {
	return func(s *Style) { s.Background = b }
}

// WithGlyphStyle sets the glyph style.
func WithGlyphStyle(g GlyphStyle) Delta {
	return func(s *Style) { s.Glyph = g }
}

// WithCornerRadius sets the corner radius as a fraction of the badge size.
func WithCornerRadius(fraction float64) Delta {
	return func(s *Style) { s.CornerRadius = fraction }
}

// ContinuousChange reports whether old and next differ only in the fields
// driven by sliders: scale, rotation and corner radius.
func ContinuousChange(old, next Style) bool {
	old.Scale, old.Rotation, old.CornerRadius = next.Scale, next.Rotation, next.CornerRadius
	return old == next
}
