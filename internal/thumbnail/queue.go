package thumbnail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sydlexius/glyphbadge/internal/event"
)

// DefaultConcurrency bounds simultaneous thumbnail fetches.
const DefaultConcurrency = 12

// Fetcher retrieves the markup for one glyph.
type Fetcher interface {
	Glyph(ctx context.Context, name string) ([]byte, error)
}

// Queue loads slots in FIFO order with at most Limit fetches in flight.
// Every finished fetch frees a permit and pulls the next queued slot.
type Queue struct {
	fetch  Fetcher
	limit  int
	sem    *semaphore.Weighted
	bus    *event.Bus
	logger *slog.Logger
	onDone func(*Slot)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending []*Slot
	active  int
	peak    int
	wg      sync.WaitGroup
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithConcurrency overrides DefaultConcurrency. Values below 1 are ignored.
func WithConcurrency(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.limit = n
		}
	}
}

// WithBus publishes thumbnail.loaded and thumbnail.failed events.
func WithBus(b *event.Bus) QueueOption {
	return func(q *Queue) { q.bus = b }
}

// OnDone registers a callback run after each fetch completes, successful
// or not, while the permit is still held.
func OnDone(fn func(*Slot)) QueueOption {
	return func(q *Queue) { q.onDone = fn }
}

// NewQueue creates a queue whose fetches run under ctx.
func NewQueue(ctx context.Context, fetch Fetcher, logger *slog.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		fetch:  fetch,
		limit:  DefaultConcurrency,
		logger: logger.With(slog.String("component", "thumbnails")),
	}
	for _, o := range opts {
		o(q)
	}
	q.sem = semaphore.NewWeighted(int64(q.limit))
	q.ctx, q.cancel = context.WithCancel(ctx)
	return q
}

// Limit returns the concurrency bound.
func (q *Queue) Limit() int { return q.limit }

// Enqueue schedules s for loading. It returns false when the slot is
// already loading or loaded; failed slots may be enqueued again.
func (q *Queue) Enqueue(s *Slot) bool {
	if q.ctx.Err() != nil || !s.reserve() {
		return false
	}
	q.mu.Lock()
	q.pending = append(q.pending, s)
	q.wg.Add(1)
	q.mu.Unlock()
	q.drain()
	return true
}

func (q *Queue) drain() {
	for q.sem.TryAcquire(1) {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			if !q.releaseIdle() {
				return
			}
			continue
		}
		s := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.active++
		q.peak = max(q.peak, q.active)
		q.mu.Unlock()

		go q.run(s)
	}
}

// releaseIdle returns a permit that was taken while nothing was pending and
// reports whether a slot arrived in the meantime. An Enqueue racing with the
// held permit may have failed its own TryAcquire, so the caller drains again.
func (q *Queue) releaseIdle() bool {
	q.sem.Release(1)
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

func (q *Queue) run(s *Slot) {
	start := time.Now()
	markup, err := q.fetch.Glyph(q.ctx, s.Entry.Name)
	s.complete(markup, err)

	if err != nil {
		q.logger.Warn("thumbnail load failed",
			slog.String("glyph", s.Entry.Name),
			slog.String("error", err.Error()))
		q.bus.Emit(event.ThumbnailFailed, "glyph", s.Entry.Name, "error", err.Error())
	} else {
		q.logger.Debug("thumbnail loaded",
			slog.String("glyph", s.Entry.Name),
			slog.Duration("elapsed", time.Since(start)))
		q.bus.Emit(event.ThumbnailLoaded, "glyph", s.Entry.Name, "bytes", len(markup))
	}
	if q.onDone != nil {
		q.onDone(s)
	}

	q.mu.Lock()
	q.active--
	q.mu.Unlock()
	q.sem.Release(1)
	q.wg.Done()
	q.drain()
}

// Active returns the number of fetches in flight.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Pending returns the number of queued slots not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Peak returns the highest number of simultaneous fetches observed.
func (q *Queue) Peak() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}

// Wait blocks until every enqueued slot has finished or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight fetches, drops queued slots back to their prior
// state and waits for running fetches to return.
func (q *Queue) Close() {
	q.mu.Lock()
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()
	q.cancel()
	for _, s := range dropped {
		s.unreserve()
		q.wg.Done()
	}
	q.wg.Wait()
}
