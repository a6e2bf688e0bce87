package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/sydlexius/glyphbadge/internal/event"
)

// Fetcher provides the raw catalog document.
type Fetcher interface {
	Catalog(ctx context.Context) ([]byte, error)
}

// Loader fetches and decodes the catalog once per process. Concurrent
// callers of Ensure share a single fetch. A failed fetch is logged and
// reported on the bus, never returned, and is not cached so a later call
// retries; until then the catalog reads as empty.
type Loader struct {
	src     Fetcher
	bus     *event.Bus
	logger  *slog.Logger
	tag     language.Tag
	timeout time.Duration

	group   singleflight.Group
	mu      sync.RWMutex
	entries []Entry
	loaded  bool
	lastErr error
	fetches atomic.Int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithLanguage sets the collation language used for sorting.
func WithLanguage(tag language.Tag) Option {
	return func(l *Loader) { l.tag = tag }
}

// WithTimeout bounds the shared fetch. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// NewLoader creates a loader for src. bus may be nil.
func NewLoader(src Fetcher, bus *event.Bus, logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		src:    src,
		bus:    bus,
		logger: logger.With(slog.String("component", "catalog")),
		tag:    language.English,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Ensure loads the catalog if it is not loaded yet. Load failures are
// absorbed: see Err. The fetch itself is detached from the caller's
// cancellation because other callers may be waiting on it; a canceled
// caller returns early with ctx.Err(), the only error Ensure returns.
func (l *Loader) Ensure(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}

	ch := l.group.DoChan("catalog", func() (any, error) {
		if l.Loaded() {
			return nil, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, l.timeout)
			defer cancel()
		}

		l.fetches.Add(1)
		start := time.Now()
		data, err := l.src.Catalog(fetchCtx)
		if err != nil {
			l.fail(err)
			return nil, nil
		}
		entries, err := Decode(data)
		if err != nil {
			l.fail(err)
			return nil, nil
		}

		l.mu.Lock()
		l.entries = entries
		l.loaded = true
		l.lastErr = nil
		l.mu.Unlock()

		l.logger.Info("catalog loaded",
			slog.Int("entries", len(entries)),
			slog.Duration("elapsed", time.Since(start)))
		l.bus.Emit(event.CatalogLoaded, "entries", len(entries))
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

func (l *Loader) fail(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
	l.logger.Error("loading catalog failed", slog.String("error", err.Error()))
	l.bus.Emit(event.CatalogFailed, "error", err.Error())
}

// Err returns the failure of the most recent load attempt, or nil once the
// catalog has loaded.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Loaded reports whether the catalog has been loaded successfully.
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Fetches returns how many underlying fetches have been started.
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

// Entries returns a copy of the loaded entries in catalog order, or nil
// before the first successful load.
func (l *Loader) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Search ensures the catalog is loaded, then filters it by query and sorts
// the matches by display name. An unloadable catalog yields no matches; the
// error is non-nil only when ctx ends first.
func (l *Loader) Search(ctx context.Context, query string) ([]Entry, error) {
	if err := l.Ensure(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	matches := Filter(l.entries, query)
	l.mu.RUnlock()
	Sort(matches, l.tag)
	return matches, nil
}

// Lookup returns the entry with the given name.
func (l *Loader) Lookup(name string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
