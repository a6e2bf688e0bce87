// Package catalog loads, normalizes, filters and sorts the glyph catalog.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one glyph in the catalog. Every catalog shape is normalized to
// this form at decode time.
type Entry struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Tags        []string `json:"tags,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// ErrUnknownShape is returned for documents that are neither a catalog
// array nor an object wrapping one.
var ErrUnknownShape = errors.New("unrecognized catalog shape")

// wrapperKeys are tried in order when the catalog is an object.
var wrapperKeys = []string{"icons", "glyphs", "names"}

// Decode parses a catalog in any supported shape:
//
//	[{"name": ..., "displayName"|"friendly_name": ..., "tags": [...], "categories": [...]}]
//	["name", ...]
//	{"icons": [...]}
//
// Entries without a name are skipped and duplicate names keep the first
// occurrence.
func Decode(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUnknownShape)
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decoding catalog: %w", err)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decoding catalog: %w", err)
		}
		found := false
		for _, k := range wrapperKeys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decoding catalog %q: %w", k, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("%w: object without an icon list", ErrUnknownShape)
		}
	default:
		return nil, ErrUnknownShape
	}

	entries := make([]Entry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, raw := range items {
		e, err := decodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding catalog entry %d: %w", i, err)
		}
		if e.Name == "" {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		entries = append(entries, e)
	}
	return entries, nil
}

type richItem struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	FriendlyName string   `json:"friendly_name"`
	Tags         wordList `json:"tags"`
	Categories   wordList `json:"categories"`
}

func decodeItem(raw json.RawMessage) (Entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Entry{}, err
		}
		name = strings.TrimSpace(name)
		return Entry{Name: name, DisplayName: DisplayName(name)}, nil
	}

	var it richItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return Entry{}, err
	}
	e := Entry{
		Name:        strings.TrimSpace(it.Name),
		DisplayName: strings.TrimSpace(it.DisplayName),
		Tags:        normalizeSet(it.Tags),
		Categories:  normalizeSet(it.Categories),
	}
	if e.DisplayName == "" {
		e.DisplayName = strings.TrimSpace(it.FriendlyName)
	}
	if e.DisplayName == "" {
		e.DisplayName = DisplayName(e.Name)
	}
	return e, nil
}

// wordList accepts either a JSON array of strings or one space separated
// string.
type wordList []string

func (w *wordList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = strings.Fields(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*w = list
	return nil
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

var numberedVariant = regexp.MustCompile(`(\w+?)([2-9]|10)(\s|$)`)

// acronyms are always rendered upper case in derived display names.
var acronyms = map[string]bool{
	"usb": true, "hdmi": true, "vga": true, "ram": true, "rom": true, "cpu": true,
	"gpu": true, "ssd": true, "hdd": true, "lcd": true, "led": true, "url": true,
	"uri": true, "sql": true, "php": true, "css": true, "js": true, "ftp": true,
	"ssh": true, "http": true, "https": true, "xml": true, "json": true, "pdf": true,
	"png": true, "jpg": true, "jpeg": true, "gif": true, "mp3": true, "mp4": true,
	"avi": true, "sd": true, "hd": true, "tv": true, "2d": true, "3d": true,
	"vr": true, "ar": true, "ai": true, "ml": true, "id": true, "ip": true,
	"faq": true, "gps": true, "atm": true, "cd": true, "dvd": true, "pc": true,
	"mac": true, "qr": true, "seo": true, "cms": true, "ui": true, "ux": true, "api": true,
	"html": true, "smtp": true, "dns": true, "ssl": true, "tls": true, "cta": true,
}

// DisplayName derives a human readable name from a glyph identifier:
// "arrow-up-circle" becomes "Arrow Up Circle", "usb-c" becomes "USB C" and
// numbered variants like "bell2" become "Bell 2".
func DisplayName(name string) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(strings.TrimSpace(name), "-", " "))
	title = numberedVariant.ReplaceAllString(title, "$1 $2$3")
	words := strings.Fields(title)
	for i, w := range words {
		if acronyms[strings.ToLower(w)] {
			words[i] = strings.ToUpper(w)
		}
	}
	return strings.Join(words, " ")
}
