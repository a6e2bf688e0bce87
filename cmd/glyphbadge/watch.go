package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sydlexius/glyphbadge/internal/event"
	"github.com/sydlexius/glyphbadge/internal/render"
	"github.com/sydlexius/glyphbadge/internal/watcher"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		out  string
		poll bool
		once bool
	)
	cmd := &cobra.Command{
		Use:   "watch <style.yaml>",
		Short: "Keep a preview file in sync with a hand-edited style file",
		Long: `Keep a preview file in sync with a hand-edited style file.

The style file holds the glyph name, the export format and the style
fields. Every save re-renders the preview; a file that fails to parse or
render leaves the previous preview in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stylePath := args[0]
			if out == "" {
				out = strings.TrimSuffix(stylePath, filepath.Ext(stylePath)) + ".preview.svg"
			}
			return a.watch(cmd.Context(), stylePath, out, poll, once)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "preview file (default is <style>.preview.svg)")
	cmd.Flags().BoolVar(&poll, "poll", false, "poll the style file instead of using filesystem events")
	cmd.Flags().BoolVar(&once, "once", false, "render the current style file once and exit")
	return cmd
}

// previewHost wires a style file to a render scheduler.
type previewHost struct {
	base    watcher.StyleFile
	session *render.Session
	sched   *render.Scheduler

	mu      sync.Mutex
	started bool
}

// apply decodes a style file and routes its changes to the scheduler.
// The first document always renders; later ones render only what changed.
func (h *previewHost) apply(_ context.Context, data []byte) error {
	doc, err := watcher.DecodeStyleFile(data, h.base)
	if err != nil {
		return err
	}
	if doc.Format != "" {
		h.session.SetFormat(doc.Format)
	}

	h.mu.Lock()
	first := !h.started
	h.started = true
	h.mu.Unlock()

	if first {
		if _, err := h.session.Replace(doc.Style); err != nil {
			return err
		}
		h.session.SelectGlyph(doc.Glyph)
		h.sched.Request(doc.Glyph)
		return nil
	}

	if doc.Glyph != h.session.Glyph() {
		h.sched.Select(doc.Glyph)
	}
	return h.sched.Restyle(doc.Style)
}

func (a *app) watch(ctx context.Context, stylePath, out string, poll, once bool) error {
	bus := a.bus()
	bus.Subscribe(func(e event.Event) {
		switch e.Type {
		case event.PreviewCommitted:
			fmt.Fprintf(a.stdout, "preview  %v -> %s\n", e.Data["glyph"], out)
		case event.RenderFailed:
			fmt.Fprintf(a.stdout, "failed   %v: %v (keeping previous preview)\n", e.Data["glyph"], e.Data["error"])
		case event.StyleChanged:
			fmt.Fprintf(a.stdout, "style    %v\n", e.Data["glyph"])
		}
	}, event.PreviewCommitted, event.RenderFailed, event.StyleChanged)

	d := a.cfg.Defaults
	host := &previewHost{
		base:    watcher.StyleFile{Glyph: d.Glyph, Format: d.Format, Style: d.Style},
		session: render.NewSession(d.Style, d.Glyph, d.Format),
	}
	host.sched = render.NewScheduler(host.session, a.source(), render.NewFileSurface(out), bus, a.logger, render.Options{
		ThrottleInterval: a.cfg.Render.ThrottleInterval,
		DebounceDelay:    a.cfg.Render.DebounceDelay,
	})
	defer host.sched.Close()

	svc := watcher.NewService(stylePath, host.apply, a.logger)
	if poll {
		svc.ForcePolling()
	}

	if once {
		data, err := os.ReadFile(stylePath) //nolint:gosec // G304: path is a command argument
		if err != nil {
			return err
		}
		if err := host.apply(ctx, data); err != nil {
			return err
		}
		if err := host.sched.WaitIdle(ctx); err != nil {
			return err
		}
		return host.sched.Err()
	}

	fmt.Fprintf(a.stdout, "watching %s (ctrl-c to stop)\n", stylePath)
	return svc.Start(ctx)
}
