package badge

import (
	"strconv"

	"github.com/sydlexius/glyphbadge/internal/svg"
)

// Stop is one color stop of a linear gradient. Opacity is omitted from the
// output when empty.
type Stop struct {
	Offset  string
	Color   string
	Opacity string
}

// Gradient is a linear gradient in user space. When Rotated is set the
// gradient is rotated by -Angle about (CX, CY) so it stays axis aligned
// while the glyph it paints is rotated by Angle.
type Gradient struct {
	ID             string
	X1, Y1, X2, Y2 float64
	Stops          []Stop
	Rotated        bool
	Angle          int
	CX, CY         float64
}

// Transform returns the gradientTransform value, or "" when not rotated.
func (g Gradient) Transform() string {
	if !g.Rotated {
		return ""
	}
	return "rotate(" + strconv.Itoa(-g.Angle) + " " + svg.Num(g.CX) + " " + svg.Num(g.CY) + ")"
}

// Node renders the gradient as a linearGradient element.
func (g Gradient) Node() *svg.Node {
	n := svg.New("linearGradient",
		"id", g.ID,
		"gradientUnits", "userSpaceOnUse",
		"x1", svg.Num(g.X1),
		"y1", svg.Num(g.Y1),
		"x2", svg.Num(g.X2),
		"y2", svg.Num(g.Y2),
	)
	for _, s := range g.Stops {
		stop := svg.New("stop", "offset", s.Offset, "stop-color", s.Color)
		if s.Opacity != "" {
			stop.Set("stop-opacity", s.Opacity)
		}
		n.Append(stop)
	}
	if t := g.Transform(); t != "" {
		n.Set("gradientTransform", t)
	}
	return n
}

// diagonalOutlineStops is the white highlight used as the glass stroke.
var diagonalOutlineStops = []Stop{
	{Offset: "0%", Color: "white", Opacity: "0.95"},
	{Offset: "20%", Color: "white", Opacity: "0.95"},
	{Offset: "40%", Color: "white", Opacity: "0"},
	{Offset: "60%", Color: "white", Opacity: "0"},
	{Offset: "80%", Color: "white", Opacity: "0.65"},
	{Offset: "100%", Color: "white", Opacity: "0.65"},
}
