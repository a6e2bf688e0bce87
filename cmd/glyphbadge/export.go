package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/event"
	"github.com/sydlexius/glyphbadge/internal/export"
	"github.com/sydlexius/glyphbadge/internal/filesystem"
	"github.com/sydlexius/glyphbadge/internal/preset"
	"github.com/sydlexius/glyphbadge/internal/render"
)

// errTerminal is returned when binary output would be written to a terminal.
var errTerminal = errors.New("refusing to write PNG data to a terminal; use --out or redirect stdout")

// exportJob is one composite to encode.
type exportJob struct {
	// dir, when set, receives the file regardless of --out.
	dir    string
	prefix string
	glyph  string
	style  badge.Style
	format export.Format
}

func (a *app) exportCmd() *cobra.Command {
	var (
		sf          styleFlags
		presetName  string
		formatName  string
		out         string
		all         bool
		supersample int
	)
	cmd := &cobra.Command{
		Use:   "export [glyph]",
		Short: "Render a badge and write it as SVG or PNG",
		Long: `Render a badge and write it as SVG or PNG.

The style starts from the configured defaults, or from --preset, and each
style flag given on the command line replaces one field. --out takes a
file, a directory, or "-" for stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if supersample <= 0 {
				supersample = a.cfg.Export.Supersample
			}
			override := func(job *exportJob) error {
				if len(args) == 1 {
					job.glyph = strings.TrimSpace(args[0])
				}
				if cmd.Flags().Changed("format") {
					f, err := export.ParseFormat(formatName)
					if err != nil {
						return err
					}
					job.format = f
				}
				style, err := sf.apply(job.style, cmd.Flags())
				if err != nil {
					return err
				}
				job.style = style
				return nil
			}

			bus := a.bus()
			bus.Subscribe(func(e event.Event) {
				a.logger.Info("export completed", slog.Any("file", e.Data["file"]), slog.Any("bytes", e.Data["bytes"]))
			}, event.ExportCompleted)

			if all {
				if out == "-" {
					return errors.New("--all writes one file per preset; --out must be a directory")
				}
				return a.exportAll(ctx, bus, override, out, supersample)
			}

			job, err := a.baseJob(ctx, presetName)
			if err != nil {
				return err
			}
			if err := override(&job); err != nil {
				return err
			}
			err = a.exportOne(ctx, bus, job, out, supersample)
			var ee *export.EncodeError
			if errors.As(err, &ee) {
				a.alertEncode(job, ee)
			}
			return err
		},
	}
	fs := cmd.Flags()
	sf.register(fs)
	fs.StringVar(&presetName, "preset", "", "start from a saved preset")
	fs.StringVar(&formatName, "format", "", "export format (svg, png32, png64, png128, png256, png512, png1024, png2048)")
	fs.StringVarP(&out, "out", "o", "", "output file, directory, or - for stdout (default is export.dir)")
	fs.BoolVar(&all, "all", false, "export every saved preset")
	fs.IntVar(&supersample, "supersample", 0, "raster supersampling factor (default is export.supersample)")
	return cmd
}

// baseJob returns the job described by the configured defaults, or by the
// named preset.
func (a *app) baseJob(ctx context.Context, presetName string) (exportJob, error) {
	job := exportJob{
		glyph:  a.cfg.Defaults.Glyph,
		style:  a.cfg.Defaults.Style,
		format: a.cfg.DefaultFormat(),
	}
	if presetName == "" {
		return job, nil
	}
	svc, err := a.presets(ctx)
	if err != nil {
		return job, err
	}
	p, err := svc.Get(ctx, presetName)
	if err != nil {
		return job, err
	}
	return presetJob(job, p)
}

func presetJob(base exportJob, p *preset.Preset) (exportJob, error) {
	job := base
	job.style = p.Style
	if p.Glyph != "" {
		job.glyph = p.Glyph
	}
	if p.Format != "" {
		f, err := export.ParseFormat(p.Format)
		if err != nil {
			return job, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		job.format = f
	}
	return job, nil
}

// exportAll exports every preset. A failing preset does not stop the
// others; all failures are reported together.
func (a *app) exportAll(ctx context.Context, bus *event.Bus, override func(*exportJob) error, dir string, supersample int) error {
	svc, err := a.presets(ctx)
	if err != nil {
		return err
	}
	list, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	if dir == "" {
		return errors.New("export dir is required")
	}
	base := exportJob{dir: dir, glyph: a.cfg.Defaults.Glyph, format: a.cfg.DefaultFormat()}

	var errs error
	for i := range list {
		p := &list[i]
		job, err := presetJob(base, p)
		if err == nil {
			err = override(&job)
		}
		if err == nil {
			job.prefix = p.Name + "-"
			err = a.exportOne(ctx, bus, job, "", supersample)
		}
		if err != nil {
			multierr.AppendInto(&errs, fmt.Errorf("preset %s: %w", p.Name, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	if n := len(multierr.Errors(errs)); n > 0 {
		a.logger.Warn("batch export finished with failures", slog.Int("failed", n), slog.Int("presets", len(list)))
	}
	return errs
}

func (a *app) exportOne(ctx context.Context, bus *event.Bus, job exportJob, out string, supersample int) error {
	c, err := render.Compose(ctx, a.source(), job.glyph, job.style)
	if err != nil {
		return err
	}
	file, err := export.Export(c, job.glyph, job.format, supersample)
	if err != nil {
		return err
	}

	if out == "-" {
		if !job.format.Vector() && isTerminal(a.stdout) {
			return errTerminal
		}
		_, err := a.stdout.Write(file.Data)
		return err
	}

	name := job.prefix + file.Name
	target := exportTarget(out, a.cfg.Export.Dir, name)
	if job.dir != "" {
		target = filepath.Join(job.dir, name)
	}
	if err := filesystem.WriteFileAtomic(target, file.Data, 0o644); err != nil {
		return err
	}
	bus.Emit(event.ExportCompleted, "file", target, "format", job.format.Name, "bytes", len(file.Data))
	fmt.Fprintf(a.stdout, "wrote %s (%s, %s)\n", target, job.format.Label, humanize.Bytes(uint64(len(file.Data))))
	return nil
}

// exportTarget resolves --out: empty means the default directory, an
// existing directory or a trailing separator means a directory, anything
// else is a file path.
func exportTarget(out, defaultDir, name string) string {
	switch {
	case out == "":
		return filepath.Join(defaultDir, name)
	case strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)):
		return filepath.Join(out, name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// alertEncode prints the raster encoder failure prominently with the
// vector alternative.
func (a *app) alertEncode(job exportJob, ee *export.EncodeError) {
	glyph := job.glyph
	if glyph == "" {
		glyph = "<glyph>"
	}
	fmt.Fprintf(a.stderr, "\n!! Could not encode %s: %v\n", job.format.Label, ee.Err)
	fmt.Fprintf(a.stderr, "!! The vector export does not need the raster encoder. Try:\n!!   glyphbadge export %s --format svg\n\n", glyph)
}
