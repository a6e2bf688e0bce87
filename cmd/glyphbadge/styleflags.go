package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sydlexius/glyphbadge/internal/badge"
)

// styleFlags are the per-field style controls shared by export and
// preset save.
type styleFlags struct {
	bg, fg     string
	scale      int
	rotate     int
	bgStyle    string
	glyphStyle string
	radius     float64
}

func (f *styleFlags) register(fs *pflag.FlagSet) {
	def := badge.DefaultStyle()
	fs.StringVar(&f.bg, "bg", def.BackgroundColor, "background color (#rgb or #rrggbb)")
	fs.StringVar(&f.fg, "fg", def.GlyphColor, "glyph color (#rgb or #rrggbb)")
	fs.IntVar(&f.scale, "scale", def.Scale, fmt.Sprintf("glyph scale in percent (%d..%d)", badge.MinScale, badge.MaxScale))
	fs.IntVar(&f.rotate, "rotate", def.Rotation, "glyph rotation in degrees")
	fs.StringVar(&f.bgStyle, "bg-style", string(def.Background), "background style (gradient, flat, none)")
	fs.StringVar(&f.glyphStyle, "glyph-style", string(def.Glyph), "glyph style (glass, gradient, flat)")
	fs.Float64Var(&f.radius, "radius", def.CornerRadius, "corner radius as a fraction of the half-size (0..1)")
}

// deltas returns one change per flag set on the command line, so unset
// flags leave the base style (config default or preset) untouched.
func (f *styleFlags) deltas(fs *pflag.FlagSet) ([]badge.Delta, error) {
	var out []badge.Delta
	if fs.Changed("bg") {
		out = append(out, badge.WithBackgroundColor(f.bg))
	}
	if fs.Changed("fg") {
		out = append(out, badge.WithGlyphColor(f.fg))
	}
	if fs.Changed("scale") {
		out = append(out, badge.WithScale(f.scale))
	}
	if fs.Changed("rotate") {
		out = append(out, badge.WithRotation(f.rotate))
	}
	if fs.Changed("bg-style") {
		b := badge.BackgroundStyle(f.bgStyle)
		if !b.Valid() {
			return nil, fmt.Errorf("%w: unknown background style %q", badge.ErrInvalidStyle, f.bgStyle)
		}
		out = append(out, badge.WithBackgroundStyle(b))
	}
	if fs.Changed("glyph-style") {
		g := badge.GlyphStyle(f.glyphStyle)
		if !g.Valid() {
			return nil, fmt.Errorf("%w: unknown glyph style %q", badge.ErrInvalidStyle, f.glyphStyle)
		}
		out = append(out, badge.WithGlyphStyle(g))
	}
	if fs.Changed("radius") {
		out = append(out, badge.WithCornerRadius(f.radius))
	}
	return out, nil
}

// apply returns base with the changed flags applied and validated.
func (f *styleFlags) apply(base badge.Style, fs *pflag.FlagSet) (badge.Style, error) {
	deltas, err := f.deltas(fs)
	if err != nil {
		return base, err
	}
	style := base.With(deltas...)
	if err := style.Validate(); err != nil {
		return base, err
	}
	return style.Normalized(), nil
}
