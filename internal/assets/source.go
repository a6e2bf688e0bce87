// Package assets retrieves the static inputs of the badge pipeline: the
// glyph catalog document and the raw markup of individual glyphs.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Default asset names relative to the asset root.
const (
	RichCatalog = "index.json"
	FlatCatalog = "icons.json"
	glyphExt    = ".svg"
)

// Read limits for fetched documents.
const (
	maxGlyphBytes   = 1 << 20
	maxCatalogBytes = 16 << 20
)

// Asset kinds reported in FetchError.
const (
	KindCatalog = "catalog"
	KindGlyph   = "glyph"
)

// Source provides catalog and glyph documents.
type Source interface {
	Catalog(ctx context.Context) ([]byte, error)
	Glyph(ctx context.Context, name string) ([]byte, error)
}

// ErrNotFound is wrapped by FetchError when an asset does not exist.
var ErrNotFound = errors.New("asset not found")

// ErrTooLarge is wrapped by FetchError when a document exceeds its read
// limit.
var ErrTooLarge = errors.New("asset exceeds size limit")

// readLimited reads all of r, failing with ErrTooLarge rather than
// truncating when r holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// ErrInvalidName is returned for glyph identifiers that cannot be mapped to
// a path inside the asset root.
var ErrInvalidName = errors.New("invalid glyph name")

// FetchError reports a failure to retrieve an asset.
type FetchError struct {
	Kind   string
	Name   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetching ")
	b.WriteString(e.Kind)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GlyphPath maps a glyph identifier to its document path relative to the
// asset root. Identifiers are trimmed; empty names and names that would
// escape the root are rejected.
func GlyphPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name + glyphExt, nil
}

// NameFromPath is the inverse of GlyphPath for a bare file name.
func NameFromPath(file string) (string, bool) {
	if !strings.HasSuffix(file, glyphExt) || strings.ContainsAny(file, `/\`) {
		return "", false
	}
	name := strings.TrimSuffix(file, glyphExt)
	return name, name != ""
}
