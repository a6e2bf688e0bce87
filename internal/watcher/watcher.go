package watcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc receives the new content of the watched file.
type ChangeFunc func(ctx context.Context, data []byte) error

// Service watches a single file and calls onChange with its content each
// time it settles on a new value. The parent directory is watched rather
// than the file itself so that editors which replace the file by rename
// keep being followed.
type Service struct {
	path      string
	onChange  ChangeFunc
	logger    *slog.Logger
	debounce  time.Duration
	poll      time.Duration
	forcePoll bool

	mu       sync.Mutex
	last     []byte
	lastStat fileStamp
	polling  bool
	applied  int
}

type fileStamp struct {
	mod  time.Time
	size int64
}

// NewService creates a watcher for path.
func NewService(path string, onChange ChangeFunc, logger *slog.Logger) *Service {
	return &Service{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger.With(slog.String("component", "style-watcher"), slog.String("path", path)),
		debounce: 100 * time.Millisecond,
		poll:     time.Second,
	}
}

// SetDebounce overrides the default debounce interval.
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// SetPollInterval overrides the poll fallback interval.
func (s *Service) SetPollInterval(d time.Duration) {
	s.poll = d
}

// ForcePolling disables fsnotify, e.g. for network filesystems that do
// not deliver events.
func (s *Service) ForcePolling() {
	s.forcePoll = true
}

// Polling reports whether the service fell back to polling.
func (s *Service) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

// Applied returns how many times onChange has been called.
func (s *Service) Applied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Start delivers the current content, then blocks until ctx is canceled
// dispatching later changes. An unreadable file at startup is an error;
// later read failures are logged and the previous content stays in effect.
func (s *Service) Start(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}

	var w *fsnotify.Watcher
	if !s.forcePoll {
		var err error
		w, err = s.openWatcher()
		if err != nil {
			s.logger.Warn("fsnotify unavailable, polling", "error", err)
		} else {
			defer w.Close() //nolint:errcheck
		}
	}
	s.mu.Lock()
	s.polling = w == nil
	s.mu.Unlock()

	s.logger.Info("style watcher starting", "polling", w == nil)

	// When fsnotify is active, use nil channels for polling and vice versa.
	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	var pollCh <-chan time.Time
	if w != nil {
		eventCh = w.Events
		errCh = w.Errors
	} else {
		pollTicker := time.NewTicker(s.poll)
		defer pollTicker.Stop()
		pollCh = pollTicker.C
	}

	// Debounce timer for coalescing bursts of writes into a single reload.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	reset := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(s.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("style watcher stopping")
			return nil

		case ev, ok := <-eventCh:
			if !ok {
				return nil
			}
			if s.relevant(ev) {
				reset()
			}

		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-pollCh:
			if s.statChanged() {
				reset()
			}

		case <-debounceTimer.C:
			if err := s.reload(ctx); err != nil {
				s.logger.Warn("style file reload failed, keeping previous style", "error", err)
			}
		}
	}
}

func (s *Service) openWatcher() (*fsnotify.Watcher, error) {
	dir := filepath.Dir(s.path)
	if !ProbeFSNotify(dir, 2*time.Second) {
		return nil, errors.New("no events delivered for " + dir)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close() //nolint:errcheck
		return nil, err
	}
	return w, nil
}

func (s *Service) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != s.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// statChanged compares the file's modification time and size against the
// last observed values.
func (s *Service) statChanged() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	stamp := fileStamp{mod: info.ModTime(), size: info.Size()}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp == s.lastStat {
		return false
	}
	s.lastStat = stamp
	return true
}

// reload reads the file and calls onChange when the content differs from
// the last delivered content.
func (s *Service) reload(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(s.path); err == nil {
		s.mu.Lock()
		s.lastStat = fileStamp{mod: info.ModTime(), size: info.Size()}
		s.mu.Unlock()
	}

	s.mu.Lock()
	same := s.last != nil && bytes.Equal(s.last, data)
	s.mu.Unlock()
	if same {
		s.logger.Debug("style file unchanged")
		return nil
	}

	if err := s.onChange(ctx, data); err != nil {
		return err
	}
	s.mu.Lock()
	s.last = data
	s.applied++
	s.mu.Unlock()
	s.logger.Info("style file applied", "bytes", len(data))
	return nil
}
