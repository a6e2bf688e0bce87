// Package export encodes composites as standalone SVG documents or PNG
// images at fixed size presets.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an export preset.
type Format struct {
	Name  string
	Label string
	// Size is the raster edge length in pixels; zero for vector output.
	Size int
}

// Vector reports whether the format produces SVG.
func (f Format) Vector() bool { return f.Size == 0 }

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f.Vector() {
		return "svg"
	}
	return "png"
}

// ContentType returns the MIME type of the output.
func (f Format) ContentType() string {
	if f.Vector() {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) String() string { return f.Name }

func raster(size int) Format {
	return Format{Name: fmt.Sprintf("png%d", size), Label: fmt.Sprintf("PNG (%dpx)", size), Size: size}
}

// SVG is the vector preset.
var SVG = Format{Name: "svg", Label: "SVG"}

// Formats lists every preset in menu order.
var Formats = []Format{
	SVG,
	raster(32),
	raster(64),
	raster(128),
	raster(256),
	raster(512),
	raster(1024),
	raster(2048),
}

// DefaultFormat is the initial preset of a session.
var DefaultFormat = raster(512)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a preset by name, case-insensitively. "png" alone
// means the default raster size.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "png" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if f.Name == n {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FileName returns the download name for a glyph in format f. An empty
// glyph name is replaced by "icon".
func FileName(glyph string, f Format) string {
	glyph = strings.TrimSpace(glyph)
	if glyph == "" {
		glyph = "icon"
	}
	if f.Vector() {
		return glyph + "-icon.svg"
	}
	return fmt.Sprintf("%s-icon-%dpx.png", glyph, f.Size)
}
