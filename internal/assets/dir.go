package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// DirSource reads assets from a file system, typically os.DirFS of a local
// copy of the glyph set.
type DirSource struct {
	fsys    fs.FS
	catalog string
	logger  *slog.Logger
}

// NewDirSource creates a source rooted at fsys. catalog is the catalog file
// name relative to the root; empty selects RichCatalog.
func NewDirSource(fsys fs.FS, catalog string, logger *slog.Logger) *DirSource {
	if catalog == "" {
		catalog = RichCatalog
	}
	return &DirSource{
		fsys:    fsys,
		catalog: catalog,
		logger:  logger.With(slog.String("component", "assets"), slog.String("source", "dir")),
	}
}

// Catalog reads the catalog document.
func (s *DirSource) Catalog(ctx context.Context) ([]byte, error) {
	data, err := s.read(ctx, s.catalog, maxCatalogBytes)
	if err != nil {
		return nil, &FetchError{Kind: KindCatalog, Name: s.catalog, Err: err}
	}
	return data, nil
}

// Glyph reads the markup document of one glyph.
func (s *DirSource) Glyph(ctx context.Context, name string) ([]byte, error) {
	p, err := GlyphPath(name)
	if err != nil {
		return nil, &FetchError{Kind: KindGlyph, Name: name, Err: err}
	}
	data, err := s.read(ctx, p, maxGlyphBytes)
	if err != nil {
		return nil, &FetchError{Kind: KindGlyph, Name: name, Err: err}
	}
	s.logger.Debug("glyph read", slog.String("name", name), slog.Int("bytes", len(data)))
	return data, nil
}

// List returns the glyph names present at the root, in directory order.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing glyphs: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := NameFromPath(e.Name()); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *DirSource) read(ctx context.Context, name string, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return readLimited(f, limit)
}
