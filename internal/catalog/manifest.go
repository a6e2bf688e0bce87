package catalog

import (
	"encoding/json"
	"slices"
	"strings"
)

// FlatManifest is the wrapped flat catalog shape.
type FlatManifest struct {
	Icons []string `json:"icons"`
}

// BuildManifest produces a catalog document for the given glyph names.
// The flat form is {"icons": [...]} with names sorted; the rich form is an
// array of entries with derived display names.
func BuildManifest(names []string, rich bool) ([]byte, error) {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)

	if !rich {
		return json.MarshalIndent(FlatManifest{Icons: clean}, "", "  ")
	}
	entries := make([]Entry, 0, len(clean))
	for _, n := range clean {
		entries = append(entries, Entry{Name: n, DisplayName: DisplayName(n)})
	}
	return json.MarshalIndent(entries, "", "  ")
}
