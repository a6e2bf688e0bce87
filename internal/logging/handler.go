package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
)

// generation pairs an output handler with the swap count that installed it.
type generation struct {
	n uint64
	h slog.Handler
}

// SwappableHandler is a slog.Handler whose output handler can be replaced at
// runtime. Handlers derived through WithAttrs and WithGroup share the root,
// so component loggers created before a swap write to the new output.
type SwappableHandler struct {
	root  *atomic.Pointer[generation]
	ops   []handlerOp
	cache atomic.Pointer[generation]
}

// handlerOp is one WithAttrs or WithGroup call, replayed on the current
// output handler after every swap.
type handlerOp struct {
	attrs []slog.Attr
	group string
}

// NewSwappableHandler creates a SwappableHandler writing to h.
func NewSwappableHandler(h slog.Handler) *SwappableHandler {
	root := &atomic.Pointer[generation]{}
	root.Store(&generation{h: h})
	return &SwappableHandler{root: root}
}

// Swap replaces the output handler for s and every handler derived from it.
func (s *SwappableHandler) Swap(h slog.Handler) {
	for {
		cur := s.root.Load()
		if s.root.CompareAndSwap(cur, &generation{n: cur.n + 1, h: h}) {
			return
		}
	}
}

func (s *SwappableHandler) resolve() slog.Handler {
	cur := s.root.Load()
	if len(s.ops) == 0 {
		return cur.h
	}
	if c := s.cache.Load(); c != nil && c.n == cur.n {
		return c.h
	}
	h := cur.h
	for _, op := range s.ops {
		if op.group != "" {
			h = h.WithGroup(op.group)
		} else {
			h = h.WithAttrs(op.attrs)
		}
	}
	s.cache.Store(&generation{n: cur.n, h: h})
	return h
}

// Enabled reports whether the current output handler accepts level.
func (s *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.resolve().Enabled(ctx, level)
}

// Handle writes r through the current output handler.
func (s *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.resolve().Handle(ctx, r)
}

// WithAttrs returns a handler that adds attrs and still follows swaps.
func (s *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	return s.derive(handlerOp{attrs: slices.Clone(attrs)})
}

// WithGroup returns a handler that opens group name and still follows swaps.
func (s *SwappableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	return s.derive(handlerOp{group: name})
}

func (s *SwappableHandler) derive(op handlerOp) *SwappableHandler {
	return &SwappableHandler{root: s.root, ops: append(slices.Clip(s.ops), op)}
}
