package export

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/glyph"
	"github.com/sydlexius/glyphbadge/internal/svg"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><path d="M2 2h12v12H2z"/></svg>`

func composite(t *testing.T, deltas ...badge.Delta) *badge.Composite {
	t.Helper()
	g, err := glyph.Require([]byte(square))
	require.NoError(t, err)
	c, err := badge.Build(g.Shapes, g.Frame, badge.DefaultStyle().With(deltas...))
	require.NoError(t, err)
	return c
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PNG1024 ")
	require.NoError(t, err)
	assert.Equal(t, 1024, f.Size)
	assert.Equal(t, "PNG (1024px)", f.Label)

	f, err = ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, f)

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.True(t, f.Vector())
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("bmp")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	require.Len(t, Formats, 8)
	assert.Equal(t, 2048, Formats[len(Formats)-1].Size)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "gear-icon.svg", FileName("gear", SVG))
	assert.Equal(t, "gear-icon-512px.png", FileName("gear", DefaultFormat))
	assert.Equal(t, "icon-icon-32px.png", FileName("  ", Formats[1]))
}

func TestVector(t *testing.T) {
	c := composite(t)
	data, err := Vector(c)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, svg.Declaration))
	assert.Contains(t, text, `xlink:href="#`)
	assert.NotRegexp(t, `NS\d+:`, text)

	root, err := svg.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "svg", root.LocalName())
	for name, want := range map[string]string{
		"width":       "512",
		"height":      "512",
		"viewBox":     c.ViewBox(),
		"xmlns":       svg.NamespaceSVG,
		"xmlns:xlink": svg.NamespaceXLink,
	} {
		got, ok := root.Attr(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	assert.NotNil(t, root.FindID(badge.IDStrokeMask))
	assert.NotNil(t, root.Find("rect"))
}

func TestRaster_TransparentCorners(t *testing.T) {
	c := composite(t)
	data, err := Raster(c, 64, DefaultSupersample)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "rounded corner stays transparent")
	_, _, _, a = img.At(32, 32).RGBA()
	assert.GreaterOrEqual(t, a, uint32(0xfe00), "center is covered")
}

func TestRaster_NoBackground(t *testing.T) {
	c := composite(t,
		badge.WithBackgroundStyle(badge.BackgroundNone),
		badge.WithGlyphStyle(badge.GlyphFlat),
		badge.WithGlyphColor("#FF0000"))
	data, err := Raster(c, 32, 1)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	_, _, _, a := img.At(1, 16).RGBA()
	assert.Zero(t, a, "outside the glyph is transparent")
	r, g, _, a := img.At(16, 16).RGBA()
	assert.GreaterOrEqual(t, a, uint32(0xfe00))
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
}

func TestRaster_ScaledGlyphKeepsAspect(t *testing.T) {
	c := composite(t,
		badge.WithBackgroundStyle(badge.BackgroundNone),
		badge.WithGlyphStyle(badge.GlyphFlat),
		badge.WithGlyphColor("#FF0000"),
		badge.WithScale(50))
	data, err := Raster(c, 32, 1)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// The square spans roughly 10..22 on both axes.
	for _, pt := range [][2]int{{16, 16}, {12, 12}, {20, 20}} {
		_, _, _, a := img.At(pt[0], pt[1]).RGBA()
		assert.GreaterOrEqual(t, a, uint32(0xfe00), "inside at %v", pt)
	}
	for _, pt := range [][2]int{{16, 6}, {6, 16}, {16, 26}, {26, 16}} {
		_, _, _, a := img.At(pt[0], pt[1]).RGBA()
		assert.Zero(t, a, "outside at %v", pt)
	}
}

func TestRaster_EncodeError(t *testing.T) {
	_, err := Raster(composite(t), 0, DefaultSupersample)
	var encErr *EncodeError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "png0", encErr.Format)
	assert.Contains(t, err.Error(), "encoding png0")
}

func TestExport(t *testing.T) {
	c := composite(t)

	f, err := Export(c, "gear", SVG, 0)
	require.NoError(t, err)
	assert.Equal(t, "gear-icon.svg", f.Name)
	assert.Equal(t, "image/svg+xml", f.ContentType)

	f, err = Export(c, "gear", Formats[1], 0)
	require.NoError(t, err)
	assert.Equal(t, "gear-icon-32px.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.True(t, bytes.HasPrefix(f.Data, []byte("\x89PNG")))
}
