package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/catalog"
	"github.com/sydlexius/glyphbadge/internal/filesystem"
)

func (a *app) manifestCmd() *cobra.Command {
	var (
		rich bool
		out  string
	)
	cmd := &cobra.Command{
		Use:   "manifest <dir>",
		Short: "Generate a catalog document from a directory of glyph files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := assets.NewDirSource(os.DirFS(args[0]), "", a.logger)
			names, err := src.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing %s: %w", args[0], err)
			}
			data, err := catalog.BuildManifest(names, rich)
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if out == "" || out == "-" {
				_, err := a.stdout.Write(data)
				return err
			}
			if err := filesystem.WriteFileAtomic(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "wrote %d glyphs to %s\n", len(names), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rich, "rich", false, "emit entries with display names instead of a flat name list")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default is stdout)")
	return cmd
}
