package export

import (
	"bytes"
	"fmt"
	"image"
	"regexp"

	"github.com/sydlexius/glyphbadge/internal/badge"
	imgproc "github.com/sydlexius/glyphbadge/internal/image"
	"github.com/sydlexius/glyphbadge/internal/svg"
)

// ReferenceSize is the width and height written into vector exports.
const ReferenceSize = 512

// DefaultSupersample is the raster oversampling factor.
const DefaultSupersample = 2

// nsArtifact matches generated namespace prefixes some serializers emit for
// xlink attributes.
var nsArtifact = regexp.MustCompile(`NS\d+:href`)

// EncodeError reports a failed raster encode. It is the one export failure
// surfaced to the user directly, since vector output is the only fallback.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// File is an encoded export ready to be written.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Standalone returns the composite as a root document carrying both
// namespaces, the padded viewBox and explicit pixel dimensions.
func Standalone(c *badge.Composite, size int) *svg.Node {
	doc := c.Document()
	out := svg.New("svg",
		"xmlns", svg.NamespaceSVG,
		"xmlns:xlink", svg.NamespaceXLink,
		"viewBox", c.ViewBox(),
		"width", svg.Num(float64(size)),
		"height", svg.Num(float64(size)),
	)
	return out.Append(doc.Children...)
}

// Vector serializes the composite as a standalone SVG file.
func Vector(c *badge.Composite) ([]byte, error) {
	var buf bytes.Buffer
	if err := Standalone(c, ReferenceSize).EncodeDocument(&buf); err != nil {
		return nil, fmt.Errorf("serializing svg: %w", err)
	}
	return nsArtifact.ReplaceAll(buf.Bytes(), []byte("xlink:href")), nil
}

// Raster renders the composite at size x size pixels on a transparent
// background. Layers are drawn at supersample times the target size and
// resampled down. Every failure is returned as *EncodeError.
func Raster(c *badge.Composite, size, supersample int) ([]byte, error) {
	name := fmt.Sprintf("png%d", size)
	if supersample < 1 {
		supersample = DefaultSupersample
	}
	img, err := rasterImage(c, size*supersample)
	if err != nil {
		return nil, &EncodeError{Format: name, Err: err}
	}
	small, err := imgproc.Downscale(img, size, size)
	if err != nil {
		return nil, &EncodeError{Format: name, Err: err}
	}
	data, err := imgproc.EncodePNG(small)
	if err != nil {
		return nil, &EncodeError{Format: name, Err: err}
	}
	return data, nil
}

// rasterImage draws the flattened layers back to front: background, the
// stroke through the glyph mask, then the fill.
func rasterImage(c *badge.Composite, px int) (*image.RGBA, error) {
	layers := c.Layers()
	canvas := image.NewRGBA(image.Rect(0, 0, px, px))

	draw := func(doc *svg.Node) (*image.RGBA, error) {
		return imgproc.Rasterize([]byte(doc.String()), px, px)
	}

	if layers.Background != nil {
		bg, err := draw(layers.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		imgproc.Over(canvas, bg)
	}
	if layers.Stroke != nil {
		stroke, err := draw(layers.Stroke)
		if err != nil {
			return nil, fmt.Errorf("stroke: %w", err)
		}
		mask, err := draw(layers.Mask)
		if err != nil {
			return nil, fmt.Errorf("mask: %w", err)
		}
		imgproc.OverMasked(canvas, stroke, mask)
	}
	fill, err := draw(layers.Fill)
	if err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}
	imgproc.Over(canvas, fill)
	return canvas, nil
}

// Export encodes the composite for glyph in format f.
func Export(c *badge.Composite, glyph string, f Format, supersample int) (File, error) {
	var (
		data []byte
		err  error
	)
	if f.Vector() {
		data, err = Vector(c)
	} else {
		data, err = Raster(c, f.Size, supersample)
	}
	if err != nil {
		return File{}, err
	}
	return File{Name: FileName(glyph, f), ContentType: f.ContentType(), Data: data}, nil
}
