package badge

import (
	"strings"

	"github.com/sydlexius/glyphbadge/internal/svg"
)

// Layers is the composite split into standalone documents that use no
// masks or references, for rasterizers that only understand plain shapes
// and gradients. Stroke is drawn through Mask's alpha; the other layers
// are drawn directly. Background and Stroke are nil when the composite
// omits them.
type Layers struct {
	Background *svg.Node
	Stroke     *svg.Node
	Mask       *svg.Node
	Fill       *svg.Node
}

// Layers flattens the composite. Each layer carries the glyph transform on
// every shape and its own copy of the gradients it references. Layer
// documents use a viewBox anchored at the origin, with the content shifted
// by the padded frame's offset, since oksvg misplaces content under a
// viewBox whose origin is not zero.
func (c *Composite) Layers() Layers {
	var l Layers
	if rect := c.backgroundRect(); rect != nil {
		l.Background = c.layer(rect)
	}
	if c.StrokePaint != "" {
		l.Stroke = c.layer(c.placedShapes(
			"fill", "none",
			"stroke", c.StrokePaint,
			"stroke-width", svg.Num(c.StrokeWidth),
			"stroke-linejoin", "round",
			"stroke-linecap", "round",
		)...)
	}
	l.Mask = c.layer(c.placedShapes("fill", "white")...)
	l.Fill = c.layer(c.placedShapes("fill", c.FillPaint)...)
	return l
}

func (c *Composite) layer(content ...*svg.Node) *svg.Node {
	p := c.Padded
	doc := svg.New("svg",
		"xmlns", svg.NamespaceSVG,
		"viewBox", "0 0 "+svg.Num(p.Width)+" "+svg.Num(p.Height),
	)
	var used []*svg.Node
	for _, g := range c.Gradients {
		id := ref(g.ID)
		for _, n := range content {
			if paints(n, id) {
				used = append(used, g.Node())
				break
			}
		}
	}
	if len(used) > 0 {
		doc.Append(svg.New("defs").Append(used...))
	}
	if p.MinX == 0 && p.MinY == 0 {
		return doc.Append(content...)
	}
	shift := svg.New("g", "transform", "translate("+svg.Num(-p.MinX)+" "+svg.Num(-p.MinY)+")")
	return doc.Append(shift.Append(content...))
}

// placedShapes clones the shapes with the glyph transform prepended to any
// transform of their own, and the paint attributes set directly on them.
func (c *Composite) placedShapes(paint ...string) []*svg.Node {
	out := make([]*svg.Node, 0, len(c.shapes))
	for _, s := range c.shapes {
		n := s.Clone()
		t := c.Transform
		if own, ok := n.Attr("transform"); ok && strings.TrimSpace(own) != "" {
			t += " " + own
		}
		n.Set("transform", t)
		for i := 0; i+1 < len(paint); i += 2 {
			n.Set(paint[i], paint[i+1])
		}
		out = append(out, n)
	}
	return out
}

func paints(n *svg.Node, id string) bool {
	for _, a := range []string{"fill", "stroke"} {
		if v, ok := n.Attr(a); ok && v == id {
			return true
		}
	}
	return false
}
