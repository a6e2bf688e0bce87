package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/export"
	"github.com/sydlexius/glyphbadge/internal/preset"
	"github.com/sydlexius/glyphbadge/internal/watcher"
)

func (a *app) presetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named styles",
	}
	cmd.AddCommand(a.presetListCmd(), a.presetShowCmd(), a.presetSaveCmd(), a.presetDeleteCmd())
	return cmd
}

func (a *app) presetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.presets(cmd.Context())
			if err != nil {
				return err
			}
			list, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tGLYPH\tFORMAT\tBACKGROUND\tUPDATED")
			for _, p := range list {
				name := p.Name
				if p.IsBuiltin {
					name += " (built-in)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\n",
					name, dash(p.Glyph), dash(p.Format),
					p.Style.Background, p.Style.BackgroundColor,
					humanize.Time(p.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

// presetShowCmd prints a preset as a style file that watch accepts.
func (a *app) presetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset as a style file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.presets(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(watcher.StyleFile{Glyph: p.Glyph, Format: p.Format, Style: p.Style}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func (a *app) presetSaveCmd() *cobra.Command {
	var (
		sf         styleFlags
		from       string
		glyph      string
		formatName string
	)
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save or replace a preset",
		Long: `Save or replace a preset.

The style starts from the configured defaults, or from the style file given
with --from, and each style flag given on the command line replaces one
field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := watcher.StyleFile{Style: a.cfg.Defaults.Style}
			if from != "" {
				data, err := os.ReadFile(from) //nolint:gosec // G304: path is a command argument
				if err != nil {
					return err
				}
				if doc, err = watcher.DecodeStyleFile(data, doc); err != nil {
					return fmt.Errorf("%s: %w", from, err)
				}
			}
			if cmd.Flags().Changed("glyph") {
				if _, err := assets.GlyphPath(glyph); err != nil {
					return err
				}
				doc.Glyph = strings.TrimSpace(glyph)
			}
			if cmd.Flags().Changed("format") {
				f, err := export.ParseFormat(formatName)
				if err != nil {
					return err
				}
				doc.Format = f.Name
			}
			style, err := sf.apply(doc.Style, cmd.Flags())
			if err != nil {
				return err
			}

			svc, err := a.presets(cmd.Context())
			if err != nil {
				return err
			}
			p := &preset.Preset{Name: args[0], Glyph: doc.Glyph, Format: doc.Format, Style: style}
			if err := svc.Save(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "saved preset %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	fs := cmd.Flags()
	sf.register(fs)
	fs.StringVar(&from, "from", "", "read glyph, format and style from a style file")
	fs.StringVar(&glyph, "glyph", "", "glyph bound to the preset")
	fs.StringVar(&formatName, "format", "", "export format bound to the preset")
	return cmd
}

func (a *app) presetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.presets(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted preset %s\n", args[0])
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
