// Package preset stores named badge styles in SQLite.
package preset

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sydlexius/glyphbadge/internal/badge"
)

// Preset is a named style, optionally bound to a glyph and export format.
type Preset struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Glyph     string      `json:"glyph,omitempty"`
	Format    string      `json:"format,omitempty"`
	Style     badge.Style `json:"style"`
	IsBuiltin bool        `json:"is_builtin"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Errors returned by Service.
var (
	ErrNotFound    = errors.New("preset not found")
	ErrBuiltin     = errors.New("built-in presets cannot be modified")
	ErrInvalidName = errors.New("preset name must not be empty")
)

func marshalStyle(s badge.Style) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalStyle decodes a stored style. Missing fields keep their
// defaults so older rows stay usable.
func unmarshalStyle(data string) (badge.Style, error) {
	s := badge.DefaultStyle()
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return badge.Style{}, err
	}
	return s, nil
}
