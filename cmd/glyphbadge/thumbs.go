package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/sydlexius/glyphbadge/internal/filesystem"
	"github.com/sydlexius/glyphbadge/internal/thumbnail"
)

type thumbsOptions struct {
	cacheDir string
	pages    int
	rows     int
	selected string
	prune    bool
}

func (a *app) thumbsCmd() *cobra.Command {
	var opts thumbsOptions
	cmd := &cobra.Command{
		Use:   "thumbs [query]",
		Short: "Prefetch thumbnail markup for the filtered grid, page by page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			if opts.cacheDir == "" {
				dir, err := os.UserCacheDir()
				if err != nil {
					return fmt.Errorf("resolving cache dir: %w", err)
				}
				opts.cacheDir = filepath.Join(dir, "glyphbadge", "thumbs")
			}
			return a.thumbs(cmd.Context(), query, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "directory receiving fetched markup (default is the user cache dir)")
	fs.IntVar(&opts.pages, "pages", 1, "number of grid pages to scroll through (0 for all)")
	fs.IntVar(&opts.rows, "rows", 6, "visible grid rows per page")
	fs.StringVar(&opts.selected, "selected", "", "currently selected glyph, fetched first")
	fs.BoolVar(&opts.prune, "prune", false, "delete cached markup of glyphs no longer in the catalog")
	return cmd
}

func (a *app) thumbs(ctx context.Context, query string, opts thumbsOptions) error {
	bus := a.bus()
	l := a.loader(bus)
	entries, err := l.Search(ctx, query)
	if err != nil {
		return err
	}
	if err := l.Err(); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	var (
		written  atomic.Int64
		mu       sync.Mutex
		writeErr error
	)
	queue := thumbnail.NewQueue(ctx, a.source(), a.logger,
		thumbnail.WithConcurrency(a.cfg.Thumbnails.MaxConcurrent),
		thumbnail.WithBus(bus),
		thumbnail.OnDone(func(s *thumbnail.Slot) {
			if s.State() != thumbnail.Loaded {
				return
			}
			markup := s.Markup()
			target := filepath.Join(opts.cacheDir, s.Entry.Name+".svg")
			if err := filesystem.WriteFileAtomic(target, markup, 0o644); err != nil {
				mu.Lock()
				multierr.AppendInto(&writeErr, err)
				mu.Unlock()
				return
			}
			written.Add(int64(len(markup)))
		}),
	)
	defer queue.Close()

	viewport := thumbnail.NewViewport(a.cfg.LookaheadSlots())
	grid, err := thumbnail.BuildGrid(ctx, entries, viewport, queue, thumbnail.GridOptions{
		ChunkSize: a.cfg.Thumbnails.ChunkSize,
		Budget:    a.cfg.Thumbnails.ChunkBudget,
		Preload:   a.cfg.Thumbnails.Preload,
		Selected:  opts.selected,
	})
	if err != nil {
		return err
	}
	defer grid.Close()
	a.logger.Info("grid built",
		slog.Int("slots", len(grid.Slots)),
		slog.Int("chunks", grid.Chunks),
		slog.Int("limit", queue.Limit()))

	page := max(1, opts.rows) * a.cfg.Thumbnails.Columns
	pages := opts.pages
	if pages <= 0 {
		pages = (len(grid.Slots) + page - 1) / page
	}
	for p := 0; p < pages && p*page < len(grid.Slots); p++ {
		fired := viewport.Scroll(p*page, page)
		a.logger.Debug("page visible", slog.Int("page", p+1), slog.Int("enqueued", fired))
		if err := queue.Wait(ctx); err != nil {
			return err
		}
	}
	if err := queue.Wait(ctx); err != nil {
		return err
	}

	counts := grid.Counts()
	fmt.Fprintf(a.stdout, "%s glyphs: %s loaded, %s error, %s unloaded; peak %d concurrent; %s written to %s\n",
		humanize.Comma(int64(len(grid.Slots))),
		humanize.Comma(int64(counts[thumbnail.Loaded])),
		humanize.Comma(int64(counts[thumbnail.Failed])),
		humanize.Comma(int64(counts[thumbnail.Unloaded])),
		queue.Peak(),
		humanize.Bytes(uint64(written.Load())), //nolint:gosec // G115: byte count is non-negative
		opts.cacheDir)

	shown := 0
	for _, s := range grid.Slots {
		if s.State() == thumbnail.Failed && shown < 5 {
			fmt.Fprintf(a.stdout, "  error  %s: %v\n", s.Entry.Name, s.Err())
			shown++
		}
	}

	if opts.prune && query == "" {
		keep := make(map[string]bool, len(grid.Slots))
		for _, s := range grid.Slots {
			keep[s.Entry.Name] = true
		}
		n, err := filesystem.Prune(opts.cacheDir, ".svg", keep, a.logger)
		if err != nil {
			return multierr.Append(writeErr, fmt.Errorf("pruning cache: %w", err))
		}
		fmt.Fprintf(a.stdout, "pruned %d stale files\n", n)
	}

	mu.Lock()
	defer mu.Unlock()
	return writeErr
}
