package render

import (
	"fmt"
	"sync"

	"github.com/sydlexius/glyphbadge/internal/export"
	"github.com/sydlexius/glyphbadge/internal/filesystem"
)

// FileSurface writes each committed preview to a file as standalone SVG.
// Writes are atomic, so a reader never sees a partial or empty preview.
type FileSurface struct {
	Path string

	mu      sync.Mutex
	commits int
	last    Preview
}

// NewFileSurface creates a surface writing to path.
func NewFileSurface(path string) *FileSurface {
	return &FileSurface{Path: path}
}

// Commit implements Surface.
func (f *FileSurface) Commit(p Preview) error {
	data, err := export.Vector(p.Composite)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing preview %s: %w", f.Path, err)
	}
	f.mu.Lock()
	f.commits++
	f.last = p
	f.mu.Unlock()
	return nil
}

// Commits returns how many previews have been written.
func (f *FileSurface) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// Last returns the most recently written preview.
func (f *FileSurface) Last() Preview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
