package watcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/export"
)

// StyleFile is the document edited by hand while a preview is watched.
// Fields absent from the document keep the values of the base it is
// decoded over.
type StyleFile struct {
	Glyph  string      `yaml:"glyph"`
	Format string      `yaml:"format"`
	Style  badge.Style `yaml:"style"`
}

// DecodeStyleFile parses data over base. Unknown keys are rejected so that
// a misspelled field is reported instead of silently ignored.
func DecodeStyleFile(data []byte, base StyleFile) (StyleFile, error) {
	doc := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("decoding style file: %w", err)
	}

	doc.Glyph = strings.TrimSpace(doc.Glyph)
	if doc.Glyph != "" {
		if _, err := assets.GlyphPath(doc.Glyph); err != nil {
			return base, err
		}
	}
	if doc.Format != "" {
		f, err := export.ParseFormat(doc.Format)
		if err != nil {
			return base, err
		}
		doc.Format = f.Name
	}
	if err := doc.Style.Validate(); err != nil {
		return base, err
	}
	doc.Style = doc.Style.Normalized()
	return doc, nil
}
