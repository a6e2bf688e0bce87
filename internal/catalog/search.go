package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter returns the entries whose name, display name, tags or categories
// contain query, ignoring case. An empty query matches everything. The
// input slice is not modified.
func Filter(entries []Entry, query string) []Entry {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(entries)
	}

	contains := func(s string) bool {
		return strings.Contains(fold.String(s), q)
	}
	out := make([]Entry, 0)
	for _, e := range entries {
		if contains(e.Name) || contains(e.DisplayName) ||
			slices.ContainsFunc(e.Tags, contains) ||
			slices.ContainsFunc(e.Categories, contains) {
			out = append(out, e)
		}
	}
	return out
}

// Sort orders entries in place by display name using the collation rules
// of tag. Equal display names are ordered by name.
func Sort(entries []Entry, tag language.Tag) {
	c := collate.New(tag)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if r := c.CompareString(a.DisplayName, b.DisplayName); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
}
