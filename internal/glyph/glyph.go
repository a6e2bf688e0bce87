// Package glyph extracts the drawable geometry of a glyph document: its
// coordinate frame and the primitive shapes, stripped of authoring style.
package glyph

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/sydlexius/glyphbadge/internal/svg"
)

// ShapeKinds lists the supported primitives in extraction order. All shapes
// of one kind are collected before the next kind.
var ShapeKinds = []string{"path", "circle", "ellipse", "rect", "polygon", "polyline"}

// strippedAttrs are removed from every extracted shape.
var strippedAttrs = []string{"fill", "stroke", "class"}

// DefaultFrame is used when a document has no usable viewBox.
var DefaultFrame = Frame{MinX: 0, MinY: 0, Width: 16, Height: 16}

// ErrEmptyGeometry reports a well-formed document without drawable shapes.
var ErrEmptyGeometry = errors.New("no drawable shapes")

// ParseError wraps a failure to read glyph markup.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parsing glyph markup: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Frame is a coordinate frame declared by a viewBox.
type Frame struct {
	MinX   float64
	MinY   float64
	Width  float64
	Height float64
}

// Pad grows the frame by margin on every side.
func (f Frame) Pad(margin float64) Frame {
	return Frame{
		MinX:   f.MinX - margin,
		MinY:   f.MinY - margin,
		Width:  f.Width + 2*margin,
		Height: f.Height + 2*margin,
	}
}

// Center returns the midpoint of the frame.
func (f Frame) Center() (x, y float64) {
	return f.MinX + f.Width/2, f.MinY + f.Height/2
}

// ViewBox formats the frame as a viewBox attribute value.
func (f Frame) ViewBox() string {
	return svg.Num(f.MinX) + " " + svg.Num(f.MinY) + " " + svg.Num(f.Width) + " " + svg.Num(f.Height)
}

// ParseFrame parses a viewBox value. It reports false unless the value holds
// exactly four numbers and a positive width and height.
func ParseFrame(viewBox string) (Frame, bool) {
	fields := strings.FieldsFunc(viewBox, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return Frame{}, false
	}
	var v [4]float64
	for i, s := range fields {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Frame{}, false
		}
		v[i] = n
	}
	f := Frame{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}
	if !(f.Width > 0) || !(f.Height > 0) {
		return Frame{}, false
	}
	return f, true
}

// Glyph is the extracted geometry of one document.
type Glyph struct {
	Frame  Frame
	Shapes []*svg.Node
}

// Empty reports whether the glyph has nothing to draw.
func (g *Glyph) Empty() bool {
	return len(g.Shapes) == 0
}

// Extract parses markup and collects its shapes. A parse failure is returned
// as *ParseError. An empty shape list is not an error here; callers decide
// with Empty or Require.
func Extract(markup []byte) (*Glyph, error) {
	root, err := svg.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	g := &Glyph{Frame: DefaultFrame}
	if el := root.Find("svg"); el != nil {
		if vb, ok := el.Attr("viewBox"); ok {
			if f, ok := ParseFrame(vb); ok {
				g.Frame = f
			}
		}
	}

	for _, kind := range ShapeKinds {
		for _, n := range root.FindAll(kind) {
			shape := n.Clone()
			stripStyle(shape)
			g.Shapes = append(g.Shapes, shape)
		}
	}
	return g, nil
}

// Require is Extract followed by a check that at least one shape exists.
func Require(markup []byte) (*Glyph, error) {
	g, err := Extract(markup)
	if err != nil {
		return nil, err
	}
	if g.Empty() {
		return nil, ErrEmptyGeometry
	}
	return g, nil
}

func stripStyle(n *svg.Node) {
	n.Walk(func(x *svg.Node) bool {
		x.Remove(strippedAttrs...)
		return true
	})
}
