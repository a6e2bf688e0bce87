package preset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const columns = `id, name, glyph, format, style, is_builtin, created_at, updated_at`

// Service provides preset data operations.
type Service struct {
	db *sql.DB
}

// NewService creates a preset service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// List returns all presets ordered by name.
func (s *Service) List(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var presets []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

// Get returns the preset with the given name. Names are case-insensitive.
func (s *Service) Get(ctx context.Context, name string) (*Preset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM presets WHERE name = ?`, strings.TrimSpace(name))
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("getting preset: %w", err)
	}
	return p, nil
}

// Save inserts p, or replaces the stored preset of the same name. The style
// is validated first. Built-in presets cannot be replaced.
func (s *Service) Save(ctx context.Context, p *Preset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrInvalidName
	}
	if err := p.Style.Validate(); err != nil {
		return err
	}
	style, err := marshalStyle(p.Style)
	if err != nil {
		return fmt.Errorf("encoding style: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := scanPreset(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM presets WHERE name = ?`, p.Name))
	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		p.IsBuiltin = false
		_, err = tx.ExecContext(ctx, `
			INSERT INTO presets (`+columns+`)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		`, p.ID, p.Name, p.Glyph, p.Format, style, now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("creating preset: %w", err)
		}
	case err != nil:
		return fmt.Errorf("looking up preset: %w", err)
	case existing.IsBuiltin:
		return fmt.Errorf("%w: %s", ErrBuiltin, existing.Name)
	default:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			UPDATE presets SET glyph = ?, format = ?, style = ?, updated_at = ?
			WHERE id = ?
		`, p.Glyph, p.Format, style, now.Format(time.RFC3339), p.ID)
		if err != nil {
			return fmt.Errorf("updating preset: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes a preset by name. Built-in presets cannot be deleted.
func (s *Service) Delete(ctx context.Context, name string) error {
	p, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if p.IsBuiltin {
		return fmt.Errorf("%w: %s", ErrBuiltin, p.Name)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, p.ID); err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}
	return nil
}

func scanPreset(row interface{ Scan(...any) error }) (*Preset, error) {
	var p Preset
	var style string
	var isBuiltin int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Glyph, &p.Format, &style, &isBuiltin, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Style, err = unmarshalStyle(style)
	if err != nil {
		return nil, fmt.Errorf("decoding style of %s: %w", p.Name, err)
	}
	p.IsBuiltin = isBuiltin == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
