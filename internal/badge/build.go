// Package badge builds styled composite documents: a glyph placed on an
// optional rounded background, painted with gradients and an inset stroke.
package badge

import (
	"fmt"
	"strconv"

	"github.com/sydlexius/glyphbadge/internal/color"
	"github.com/sydlexius/glyphbadge/internal/glyph"
	"github.com/sydlexius/glyphbadge/internal/svg"
)

// Element ids used inside a composite document.
const (
	IDRoot               = "icon-root"
	IDBackgroundGradient = "backgroundGradient"
	IDFadeFill           = "fadeFill"
	IDDiagonalOutline    = "diagOutline"
	IDGlyphGradient      = "glyphGradient"
	IDGlyphGroup         = "iconShape"
	IDStrokeMask         = "innerStrokeMask"
	IDMaskGroup          = "maskShapes"
)

// FramePadding is added on every side of the glyph frame so strokes are not
// clipped at the canvas edge.
const FramePadding = 2.0

// Composite is a built badge. It is immutable once returned by Build; use
// Document to get a copy of the markup tree.
type Composite struct {
	Style       Style
	Frame       glyph.Frame
	Padded      glyph.Frame
	CenterX     float64
	CenterY     float64
	Rotation    int
	Scale       float64
	StrokeWidth float64
	Transform   string
	Gradients   []Gradient

	// Paint references. BackgroundFill is empty when there is no background
	// and StrokePaint is empty when the stroke pass is omitted.
	BackgroundFill string
	StrokePaint    string
	FillPaint      string

	shapes []*svg.Node
	root   *svg.Node
}

// Build synthesizes a composite document from extracted shapes. The shapes
// are cloned; the caller's nodes are never modified.
func Build(shapes []*svg.Node, frame glyph.Frame, style Style) (*Composite, error) {
	style = style.Normalized()
	bg, err := color.ParseHex(style.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("%w: background: %w", ErrInvalidColor, err)
	}
	fg, err := color.ParseHex(style.GlyphColor)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph: %w", ErrInvalidColor, err)
	}
	if !(frame.Width > 0) || !(frame.Height > 0) {
		frame = glyph.DefaultFrame
	}

	padded := frame.Pad(FramePadding)
	cx, cy := frame.Center()
	c := &Composite{
		Style:       style,
		Frame:       frame,
		Padded:      padded,
		CenterX:     cx,
		CenterY:     cy,
		Rotation:    style.Rotation,
		Scale:       float64(style.Scale) * padded.Width / (100 * frame.Width),
		StrokeWidth: padded.Width / 16 * 0.6,
	}
	c.Transform = "translate(" + svg.Num(cx) + " " + svg.Num(cy) + ")" +
		" rotate(" + strconv.Itoa(c.Rotation) + ")" +
		" scale(" + svg.Num(c.Scale) + " " + svg.Num(c.Scale) + ")" +
		" translate(" + svg.Num(-cx) + " " + svg.Num(-cy) + ")"

	for _, s := range shapes {
		c.shapes = append(c.shapes, s.Clone())
	}

	top, bottom := padded.MinY, padded.MinY+padded.Height
	c.Gradients = append(c.Gradients, Gradient{
		ID: IDBackgroundGradient,
		X1: padded.MinX, Y1: top,
		X2: padded.MinX, Y2: bottom,
		Stops: []Stop{
			{Offset: "0%", Color: bg.Lighter().Hex()},
			{Offset: "100%", Color: bg.Darker().Hex()},
		},
	})

	glyphHex := fg.Hex()
	switch style.Glyph {
	case GlyphGlass:
		c.Gradients = append(c.Gradients,
			c.counterRotated(Gradient{
				ID: IDFadeFill,
				X1: padded.MinX, Y1: bottom,
				X2: padded.MinX, Y2: top,
				Stops: []Stop{
					{Offset: "0%", Color: glyphHex, Opacity: "0.75"},
					{Offset: "100%", Color: glyphHex, Opacity: "0.95"},
				},
			}),
			c.counterRotated(Gradient{
				ID: IDDiagonalOutline,
				X1: padded.MinX, Y1: top,
				X2: padded.MinX + padded.Width, Y2: bottom,
				Stops: diagonalOutlineStops,
			}),
		)
		c.StrokePaint = ref(IDDiagonalOutline)
		c.FillPaint = ref(IDFadeFill)
	case GlyphGradient:
		c.Gradients = append(c.Gradients, c.counterRotated(Gradient{
			ID: IDGlyphGradient,
			X1: padded.MinX, Y1: top,
			X2: padded.MinX, Y2: bottom,
			Stops: []Stop{
				{Offset: "0%", Color: fg.Lighter().Hex()},
				{Offset: "100%", Color: fg.Darker().Hex()},
			},
		}))
		c.FillPaint = ref(IDGlyphGradient)
	default:
		c.FillPaint = glyphHex
	}

	switch style.Background {
	case BackgroundNone:
	case BackgroundFlat:
		c.BackgroundFill = bg.Hex()
	default:
		c.BackgroundFill = ref(IDBackgroundGradient)
	}

	c.root = c.document()
	return c, nil
}

func (c *Composite) counterRotated(g Gradient) Gradient {
	g.Rotated = true
	g.Angle = c.Rotation
	g.CX, g.CY = c.CenterX, c.CenterY
	return g
}

// document assembles the markup tree in back-to-front order: background,
// masked stroke pass, fill pass.
func (c *Composite) document() *svg.Node {
	root := svg.New("svg",
		"id", IDRoot,
		"xmlns", svg.NamespaceSVG,
		"xmlns:xlink", svg.NamespaceXLink,
		"viewBox", c.Padded.ViewBox(),
		"preserveAspectRatio", "xMidYMid meet",
	)

	defs := svg.New("defs")
	for _, g := range c.Gradients {
		defs.Append(g.Node())
	}

	group := svg.New("g", "id", IDGlyphGroup, "transform", c.Transform)
	for _, s := range c.shapes {
		group.Append(s.Clone())
	}
	defs.Append(group)

	maskGroup := svg.New("g", "id", IDMaskGroup, "fill", "white", "transform", c.Transform)
	for _, s := range c.shapes {
		maskGroup.Append(s.Clone().Set("fill", "white").Remove("stroke"))
	}
	defs.Append(svg.New("mask",
		"id", IDStrokeMask,
		"maskUnits", "userSpaceOnUse",
		"maskContentUnits", "userSpaceOnUse",
		"x", svg.Num(c.Padded.MinX),
		"y", svg.Num(c.Padded.MinY),
		"width", svg.Num(c.Padded.Width),
		"height", svg.Num(c.Padded.Height),
	).Append(maskGroup))
	root.Append(defs)

	if rect := c.backgroundRect(); rect != nil {
		root.Append(rect)
	}

	stroke := svg.New("use", "xlink:href", "#"+IDGlyphGroup, "fill", "none")
	if c.StrokePaint != "" {
		stroke.Set("stroke", c.StrokePaint)
	}
	stroke.Set("stroke-width", svg.Num(c.StrokeWidth)).
		Set("stroke-linejoin", "round").
		Set("stroke-linecap", "round")
	root.Append(svg.New("g", "mask", ref(IDStrokeMask)).Append(stroke))

	root.Append(svg.New("use", "xlink:href", "#"+IDGlyphGroup, "fill", c.FillPaint))
	return root
}

func (c *Composite) backgroundRect() *svg.Node {
	if c.BackgroundFill == "" {
		return nil
	}
	p := c.Padded
	return svg.New("rect",
		"x", svg.Num(p.MinX),
		"y", svg.Num(p.MinY),
		"width", svg.Num(p.Width),
		"height", svg.Num(p.Height),
		"rx", svg.Num(p.Width*c.Style.CornerRadius),
		"ry", svg.Num(p.Height*c.Style.CornerRadius),
		"fill", c.BackgroundFill,
	)
}

// Document returns a deep copy of the composite markup.
func (c *Composite) Document() *svg.Node {
	return c.root.Clone()
}

// ViewBox returns the padded viewBox of the composite.
func (c *Composite) ViewBox() string {
	return c.Padded.ViewBox()
}

// HasBackground reports whether a background shape is drawn.
func (c *Composite) HasBackground() bool {
	return c.BackgroundFill != ""
}

// Gradient returns the gradient with the given id.
func (c *Composite) Gradient(id string) (Gradient, bool) {
	for _, g := range c.Gradients {
		if g.ID == id {
			return g, true
		}
	}
	return Gradient{}, false
}

func ref(id string) string {
	return "url(#" + id + ")"
}
