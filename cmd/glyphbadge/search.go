package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the glyph catalog by name, tag or category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			l := a.loader(nil)
			entries, err := l.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			if err := l.Err(); err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			total := len(entries)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tTAGS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.DisplayName, strings.Join(e.Tags, " "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s of %s glyphs\n", humanize.Comma(int64(len(entries))), humanize.Comma(int64(total)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print matches as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many matches (0 for all)")
	return cmd
}
