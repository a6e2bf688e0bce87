// Package render keeps a live badge preview current while style and glyph
// selections change rapidly. At most one composite build runs at a time and
// only the newest request is ever committed to the preview surface.
package render

import (
	"sync"

	"github.com/sydlexius/glyphbadge/internal/badge"
)

// Snapshot is a consistent view of a Session.
type Snapshot struct {
	Style  badge.Style
	Glyph  string
	Format string
}

// Session owns the mutable selection state of one preview: the current
// style, glyph and export format. Controls change it through deltas; the
// scheduler reads a snapshot when a build starts.
type Session struct {
	mu     sync.RWMutex
	style  badge.Style
	glyph  string
	format string
}

// NewSession creates a session with the given initial state.
func NewSession(style badge.Style, glyph, format string) *Session {
	return &Session{style: style, glyph: glyph, format: format}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Style: s.style, Glyph: s.glyph, Format: s.format}
}

// Style returns the current style.
func (s *Session) Style() badge.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Glyph returns the selected glyph name.
func (s *Session) Glyph() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.glyph
}

// Format returns the selected export format name.
func (s *Session) Format() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// Apply validates the style produced by deltas and stores it. On error the
// session is unchanged. It returns the previous and the new style.
func (s *Session) Apply(deltas ...badge.Delta) (prev, next badge.Style, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.style
	next = prev.With(deltas...)
	if err := next.Validate(); err != nil {
		return prev, prev, err
	}
	s.style = next
	return prev, next, nil
}

// Replace stores a complete style after validating it.
func (s *Session) Replace(style badge.Style) (prev badge.Style, err error) {
	if err := style.Validate(); err != nil {
		return s.Style(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.style
	s.style = style
	return prev, nil
}

// SelectGlyph records the selected glyph and reports whether it changed.
func (s *Session) SelectGlyph(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.glyph != name
	s.glyph = name
	return changed
}

// SetFormat records the export format.
func (s *Session) SetFormat(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = name
}
