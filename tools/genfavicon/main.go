// Command genfavicon renders the glyphbadge icon set: the project's own
// badge exported as SVG and at the usual favicon and touch-icon sizes.
// Run from the repository root: go run ./tools/genfavicon
package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/export"
	"github.com/sydlexius/glyphbadge/internal/filesystem"
	"github.com/sydlexius/glyphbadge/internal/glyph"
	imgproc "github.com/sydlexius/glyphbadge/internal/image"
)

// mark is a four-point sparkle on a 24-unit grid.
const mark = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
  <path d="M12 1.5c.6 4.9 2.3 8 5 9.4 1.4.7 3.2 1 5.5 1.1-4.9.6-8 2.3-9.4 5-.7 1.4-1 3.2-1.1 5.5-.6-4.9-2.3-8-5-9.4C5.6 12.4 3.8 12.1 1.5 12c4.9-.6 8-2.3 9.4-5 .7-1.4 1-3.2 1.1-5.5z"/>
</svg>`

var sizes = []int{16, 32, 48, 180, 192, 512}

func main() {
	outDir := pflag.String("out", filepath.Join("dist", "icons"), "output directory")
	supersample := pflag.Int("supersample", 4, "raster supersampling factor")
	pflag.Parse()

	if err := run(*outDir, *supersample); err != nil {
		fmt.Fprintf(os.Stderr, "genfavicon: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string, supersample int) error {
	g, err := glyph.Require([]byte(mark))
	if err != nil {
		return fmt.Errorf("parsing mark: %w", err)
	}
	style := badge.DefaultStyle().With(badge.WithScale(64))
	c, err := badge.Build(g.Shapes, g.Frame, style)
	if err != nil {
		return fmt.Errorf("building badge: %w", err)
	}

	vec, err := export.Vector(c)
	if err != nil {
		return err
	}
	if err := write(filepath.Join(outDir, "favicon.svg"), vec); err != nil {
		return err
	}

	for _, size := range sizes {
		data, err := export.Raster(c, size, supersample)
		if err != nil {
			return err
		}
		if err := verify(data, size); err != nil {
			return fmt.Errorf("favicon-%d: %w", size, err)
		}
		if err := write(filepath.Join(outDir, fmt.Sprintf("favicon-%d.png", size)), data); err != nil {
			return err
		}
	}
	return nil
}

func write(path string, data []byte) error {
	if err := filesystem.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("  %s (%d bytes)\n", path, len(data))
	return nil
}

// verify checks that data is a square PNG of the given size with something
// drawn on it.
func verify(data []byte, size int) error {
	format, r, err := imgproc.DetectFormat(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if format != imgproc.FormatPNG {
		return fmt.Errorf("encoded as %s, want png", format)
	}
	w, h, err := imgproc.Dimensions(r)
	if err != nil {
		return err
	}
	if w != size || h != size {
		return fmt.Errorf("rendered %dx%d, want %dx%d", w, h, size, size)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if imgproc.AlphaBounds(img, 0).Empty() {
		return errors.New("icon is fully transparent")
	}
	return nil
}
