package thumbnail

import (
	"cmp"
	"slices"
	"sync"
)

// Observer reports when observed slots become visible. Each slot is
// reported at most once; after that it is no longer observed.
type Observer interface {
	Observe(s *Slot)
	OnVisible(fn func(s *Slot))
	Disconnect()
}

// Viewport is an Observer over a linear list of cells. A scroll position
// exposes a window of cells, widened by Lookahead on both sides so loading
// starts before a cell is actually on screen.
type Viewport struct {
	Lookahead int

	mu        sync.Mutex
	observed  map[*Slot]struct{}
	callbacks []func(*Slot)
	closed    bool
}

// NewViewport creates a viewport with the given lookahead in cells.
func NewViewport(lookahead int) *Viewport {
	return &Viewport{
		Lookahead: max(lookahead, 0),
		observed:  make(map[*Slot]struct{}),
	}
}

// Observe starts watching s.
func (v *Viewport) Observe(s *Slot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.observed[s] = struct{}{}
}

// OnVisible registers fn to be called for each slot that becomes visible.
func (v *Viewport) OnVisible(fn func(*Slot)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.callbacks = append(v.callbacks, fn)
}

// Disconnect stops all observation. Later scrolls report nothing.
func (v *Viewport) Disconnect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	clear(v.observed)
}

// Pending returns how many slots are still observed.
func (v *Viewport) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observed)
}

// Scroll shows count cells starting at index first and reports every
// observed slot inside the widened window, in index order. It returns the
// number of slots reported.
func (v *Viewport) Scroll(first, count int) int {
	lo := first - v.Lookahead
	hi := first + count + v.Lookahead

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0
	}
	var visible []*Slot
	for s := range v.observed {
		if s.Index >= lo && s.Index < hi {
			visible = append(visible, s)
			delete(v.observed, s)
		}
	}
	callbacks := slices.Clone(v.callbacks)
	v.mu.Unlock()

	slices.SortFunc(visible, func(a, b *Slot) int { return cmp.Compare(a.Index, b.Index) })
	for _, s := range visible {
		for _, fn := range callbacks {
			fn(s)
		}
	}
	return len(visible)
}
