package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/event"
	"github.com/sydlexius/glyphbadge/internal/glyph"
)

// GlyphSource retrieves raw glyph markup.
type GlyphSource interface {
	Glyph(ctx context.Context, name string) ([]byte, error)
}

// Preview is a committed build result.
type Preview struct {
	Glyph      string
	Style      badge.Style
	Composite  *badge.Composite
	Generation uint64
}

// Surface receives committed previews. Commit is called with the scheduler
// lock held, so commits never interleave.
type Surface interface {
	Commit(p Preview) error
}

// State is the scheduler state.
type State int

// Scheduler states.
const (
	Idle State = iota
	Building
	BuildingWithPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case BuildingWithPending:
		return "building-with-pending"
	}
	return "unknown"
}

// Compose fetches a glyph, extracts its shapes and builds the composite.
func Compose(ctx context.Context, src GlyphSource, name string, style badge.Style) (*badge.Composite, error) {
	markup, err := src.Glyph(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := glyph.Require(markup)
	if err != nil {
		return nil, fmt.Errorf("glyph %q: %w", name, err)
	}
	return badge.Build(g.Shapes, g.Frame, style)
}

// Options tunes a Scheduler.
type Options struct {
	ThrottleInterval time.Duration
	DebounceDelay    time.Duration
}

// Stats counts scheduler outcomes.
type Stats struct {
	Started   int
	Committed int
	Discarded int
	Failed    int
}

// Scheduler runs composite builds for a Session. While a build runs, new
// requests only replace a single pending slot; when the build finishes the
// pending request, if any, supersedes it and starts next.
type Scheduler struct {
	session *Session
	src     GlyphSource
	surface Surface
	bus     *event.Bus
	logger  *slog.Logger

	throttle *throttle
	debounce *debounce

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	state      State
	pending    string
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
	current    *Preview
	lastErr    error
	stats      Stats
	closed     bool
}

// NewScheduler creates a scheduler. bus may be nil.
func NewScheduler(session *Session, src GlyphSource, surface Surface, bus *event.Bus, logger *slog.Logger, opts Options) *Scheduler {
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = DefaultThrottleInterval
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	s := &Scheduler{
		session: session,
		src:     src,
		surface: surface,
		bus:     bus,
		logger:  logger.With(slog.String("component", "render")),
		settled: make(chan struct{}),
	}
	close(s.settled)
	s.ctx, s.stop = context.WithCancel(context.Background())
	s.throttle = newThrottle(opts.ThrottleInterval, s.Request)
	s.debounce = newDebounce(opts.DebounceDelay, s.Request)
	return s
}

// Request asks for a preview of the named glyph with the session's style
// as it is when the build starts.
func (s *Scheduler) Request(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch s.state {
	case Idle:
		s.start(name)
	default:
		s.pending = name
		s.state = BuildingWithPending
	}
}

// Throttled is the entry point for continuous input such as dragging a
// slider: it fires at most once per throttle interval and honors the last
// call of each window.
func (s *Scheduler) Throttled(name string) {
	s.throttle.call(name)
}

// Debounced is the entry point for discrete selections: it fires once the
// calls have been quiet for the debounce delay.
func (s *Scheduler) Debounced(name string) {
	s.debounce.call(name)
}

// Select records a glyph selection on the session and requests a preview.
func (s *Scheduler) Select(name string) {
	s.session.SelectGlyph(name)
	s.Debounced(name)
}

// Update applies style deltas to the session and requests a preview of the
// current glyph. Changes that only touch scale, rotation or corner radius
// go through the throttled entry point; everything else is debounced.
func (s *Scheduler) Update(deltas ...badge.Delta) error {
	prev, next, err := s.session.Apply(deltas...)
	if err != nil {
		return err
	}
	s.restyled(prev, next)
	return nil
}

// Restyle replaces the session style and requests a preview like Update.
func (s *Scheduler) Restyle(style badge.Style) error {
	prev, err := s.session.Replace(style)
	if err != nil {
		return err
	}
	s.restyled(prev, style)
	return nil
}

func (s *Scheduler) restyled(prev, next badge.Style) {
	if prev == next {
		return
	}
	s.bus.Emit(event.StyleChanged, "glyph", s.session.Glyph())
	name := s.session.Glyph()
	if badge.ContinuousChange(prev, next) {
		s.Throttled(name)
		return
	}
	s.Debounced(name)
}

// start begins a build. The caller holds s.mu.
func (s *Scheduler) start(name string) {
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	if s.state == Idle {
		s.settled = make(chan struct{})
	}
	s.state = Building
	s.stats.Started++
	style := s.session.Style()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		comp, err := Compose(ctx, s.src, name, style)
		s.finish(ctx, gen, Preview{Glyph: name, Style: style, Composite: comp, Generation: gen}, err, time.Since(start))
	}()
}

func (s *Scheduler) finish(ctx context.Context, gen uint64, p Preview, err error, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		return
	}

	if s.state == BuildingWithPending {
		next := s.pending
		s.pending = ""
		s.stats.Discarded++
		s.logger.Debug("build superseded", slog.String("glyph", p.Glyph), slog.Uint64("generation", gen))
		s.start(next)
		return
	}

	// Read before cancel: the build's own context is about to be released.
	canceled := ctx.Err() != nil
	s.cancel()
	s.cancel = nil
	s.state = Idle
	defer close(s.settled)

	switch {
	case canceled:
		s.stats.Discarded++
		return
	case err != nil:
		s.failed(p.Glyph, err)
		return
	}

	if err := s.surface.Commit(p); err != nil {
		s.failed(p.Glyph, fmt.Errorf("committing preview: %w", err))
		return
	}
	s.current = &p
	s.lastErr = nil
	s.stats.Committed++
	s.logger.Debug("preview committed",
		slog.String("glyph", p.Glyph),
		slog.Uint64("generation", gen),
		slog.Duration("elapsed", elapsed))
	s.bus.Emit(event.PreviewCommitted, "glyph", p.Glyph, "generation", gen)
}

// failed records a build failure. The previous preview stays in place.
// The caller holds s.mu.
func (s *Scheduler) failed(name string, err error) {
	if errors.Is(err, context.Canceled) {
		s.stats.Discarded++
		return
	}
	s.lastErr = err
	s.stats.Failed++
	s.logger.Error("render failed",
		slog.String("glyph", name),
		slog.Bool("kept_previous", s.current != nil),
		slog.String("error", err.Error()))
	s.bus.Emit(event.RenderFailed, "glyph", name, "error", err.Error())
}

// State returns the scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the last committed preview, or nil if none has been
// committed yet.
func (s *Scheduler) Current() *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Err returns the error of the most recent failed build, cleared by the
// next successful commit.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stats returns outcome counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// WaitIdle blocks until no build is running or pending and no throttled or
// debounced call is waiting to fire.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		settled := s.settled
		idle := s.state == Idle
		s.mu.Unlock()

		if idle && !s.throttle.pending() && !s.debounce.pending() {
			return nil
		}
		wait := settled
		if idle {
			wait = nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		case <-time.After(time.Millisecond):
		}
	}
}

// Close stops the entry points, cancels the running build and waits for it
// to return. Results arriving after Close are dropped.
func (s *Scheduler) Close() {
	s.throttle.stop()
	s.debounce.stop()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	if s.state != Idle {
		s.state = Idle
		s.pending = ""
		close(s.settled)
	}
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}
