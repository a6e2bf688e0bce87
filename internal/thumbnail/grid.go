package thumbnail

import (
	"context"
	"runtime"
	"time"

	"github.com/sydlexius/glyphbadge/internal/catalog"
)

// Grid construction defaults.
const (
	DefaultChunkSize = 150
	DefaultBudget    = 10 * time.Millisecond
	DefaultPreload   = 40
)

// GridOptions tunes BuildGrid. Zero values take the defaults above.
type GridOptions struct {
	ChunkSize int
	Budget    time.Duration
	Preload   int
	// Selected names the current glyph; its slot is enqueued immediately.
	Selected string
	// Yield is called between chunks. The default yields the processor and
	// returns ctx.Err().
	Yield func(ctx context.Context) error
}

func (o GridOptions) withDefaults() GridOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.Preload < 0 {
		o.Preload = 0
	} else if o.Preload == 0 {
		o.Preload = DefaultPreload
	}
	if o.Yield == nil {
		o.Yield = func(ctx context.Context) error {
			runtime.Gosched()
			return ctx.Err()
		}
	}
	return o
}

// Grid is a built set of slots observed for visibility.
type Grid struct {
	Slots    []*Slot
	Chunks   int
	observer Observer
}

// BuildGrid creates one slot per entry, registers each with observer and
// wires visibility to queue. Construction yields whenever the time budget
// is spent or a chunk boundary is reached. Once every slot exists the first
// Preload slots are enqueued. On cancellation the partial grid is
// disconnected and ctx.Err() is returned.
func BuildGrid(ctx context.Context, entries []catalog.Entry, observer Observer, queue *Queue, opts GridOptions) (*Grid, error) {
	opts = opts.withDefaults()
	g := &Grid{
		Slots:    make([]*Slot, 0, len(entries)),
		observer: observer,
	}
	observer.OnVisible(func(s *Slot) { queue.Enqueue(s) })

	start := time.Now()
	for i, e := range entries {
		s := NewSlot(e, i)
		g.Slots = append(g.Slots, s)
		if opts.Selected != "" && e.Name == opts.Selected {
			s.setSelected(true)
			queue.Enqueue(s)
		}
		observer.Observe(s)

		last := i == len(entries)-1
		if !last && ((i+1)%opts.ChunkSize == 0 || time.Since(start) >= opts.Budget) {
			g.Chunks++
			if err := opts.Yield(ctx); err != nil {
				observer.Disconnect()
				return nil, err
			}
			start = time.Now()
		}
	}

	for _, s := range g.Slots[:min(opts.Preload, len(g.Slots))] {
		queue.Enqueue(s)
	}
	return g, nil
}

// Close stops visibility tracking. Call it before building a replacement
// grid.
func (g *Grid) Close() {
	g.observer.Disconnect()
}

// Lookup returns the slot for the named glyph.
func (g *Grid) Lookup(name string) (*Slot, bool) {
	for _, s := range g.Slots {
		if s.Entry.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Counts tallies slots by state.
func (g *Grid) Counts() map[State]int {
	out := make(map[State]int, 4)
	for _, s := range g.Slots {
		out[s.State()]++
	}
	return out
}
