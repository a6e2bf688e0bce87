// Package thumbnail populates a filterable grid of glyph previews and loads
// their markup through a bounded-concurrency queue driven by visibility.
package thumbnail

import (
	"sync"

	"github.com/sydlexius/glyphbadge/internal/catalog"
)

// State is the load state of a Slot.
type State int

// Slot states.
const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Slot is one grid cell bound to a catalog entry.
type Slot struct {
	Entry catalog.Entry
	Index int

	mu       sync.Mutex
	state    State
	markup   []byte
	err      error
	selected bool
}

// NewSlot creates an unloaded slot.
func NewSlot(e catalog.Entry, index int) *Slot {
	return &Slot{Entry: e, Index: index}
}

// State returns the current load state.
func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Markup returns the most recently loaded markup. After a failed reload it
// still returns the previous content.
func (s *Slot) Markup() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markup
}

// Err returns the error of the last failed load.
func (s *Slot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Selected reports whether the slot holds the current glyph.
func (s *Slot) Selected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Slot) setSelected(v bool) {
	s.mu.Lock()
	s.selected = v
	s.mu.Unlock()
}

// reserve moves an unloaded or failed slot to Loading. It reports false if
// the slot is already loading or loaded.
func (s *Slot) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Loading || s.state == Loaded {
		return false
	}
	s.state = Loading
	return true
}

// unreserve returns a queued slot that will not be fetched to Unloaded, or
// to Failed if it had failed before.
func (s *Slot) unreserve() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return
	}
	if s.err != nil {
		s.state = Failed
	} else {
		s.state = Unloaded
	}
}

func (s *Slot) complete(markup []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.err = err
		return
	}
	s.state = Loaded
	s.markup = markup
	s.err = nil
}
