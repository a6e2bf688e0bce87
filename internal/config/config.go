package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/badge"
	"github.com/sydlexius/glyphbadge/internal/export"
	"github.com/sydlexius/glyphbadge/internal/logging"
	"github.com/sydlexius/glyphbadge/internal/render"
	"github.com/sydlexius/glyphbadge/internal/thumbnail"
)

// DefaultGlyph is the glyph selected when nothing else is configured.
const DefaultGlyph = "palette-fill"

// Config holds all application configuration.
type Config struct {
	Assets     AssetsConfig    `yaml:"assets"`
	Render     RenderConfig    `yaml:"render"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
	Export     ExportConfig    `yaml:"export"`
	Database   DatabaseConfig  `yaml:"database"`
	Logging    logging.Config  `yaml:"logging"`
	Defaults   DefaultsConfig  `yaml:"defaults"`
}

// AssetsConfig selects where the catalog and glyph markup come from.
// A non-empty BaseURL takes precedence over Dir.
type AssetsConfig struct {
	Dir               string        `yaml:"dir"`
	BaseURL           string        `yaml:"base_url"`
	Catalog           string        `yaml:"catalog"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           uint64        `yaml:"retries"`
	CacheEntries      int           `yaml:"cache_entries"`
}

// Remote reports whether assets are fetched over HTTP.
func (a AssetsConfig) Remote() bool { return a.BaseURL != "" }

// RenderConfig holds preview scheduling settings.
type RenderConfig struct {
	ThrottleInterval time.Duration `yaml:"throttle_interval"`
	DebounceDelay    time.Duration `yaml:"debounce_delay"`
}

// ThumbnailConfig holds grid population and fetch settings.
type ThumbnailConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	ChunkSize     int           `yaml:"chunk_size"`
	ChunkBudget   time.Duration `yaml:"chunk_budget"`
	Preload       int           `yaml:"preload"`
	LookaheadRows int           `yaml:"lookahead_rows"`
	Columns       int           `yaml:"columns"`
}

// ExportConfig holds export output settings.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Supersample int    `yaml:"supersample"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultsConfig is the initial state of a new session.
type DefaultsConfig struct {
	Glyph  string      `yaml:"glyph"`
	Format string      `yaml:"format"`
	Style  badge.Style `yaml:"style"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Dir:               "assets",
			Catalog:           assets.RichCatalog,
			RequestsPerSecond: 20,
			Timeout:           10 * time.Second,
			Retries:           3,
			CacheEntries:      512,
		},
		Render: RenderConfig{
			ThrottleInterval: render.DefaultThrottleInterval,
			DebounceDelay:    render.DefaultDebounceDelay,
		},
		Thumbnails: ThumbnailConfig{
			MaxConcurrent: thumbnail.DefaultConcurrency,
			ChunkSize:     thumbnail.DefaultChunkSize,
			ChunkBudget:   thumbnail.DefaultBudget,
			Preload:       thumbnail.DefaultPreload,
			LookaheadRows: 4,
			Columns:       8,
		},
		Export: ExportConfig{
			Dir:         ".",
			Supersample: export.DefaultSupersample,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir(), "glyphbadge.db"),
		},
		Logging: logging.DefaultConfig(),
		Defaults: DefaultsConfig{
			Glyph:  DefaultGlyph,
			Format: export.DefaultFormat.Name,
			Style:  badge.DefaultStyle(),
		},
	}
}

// DefaultPath returns $GB_CONFIG_PATH, or config.yaml under the user's
// config directory.
func DefaultPath() string {
	if v := os.Getenv("GB_CONFIG_PATH"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "glyphbadge", "config.yaml")
}

func dataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "glyphbadge")
	}
	return "."
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("GB_ASSETS_DIR"); v != "" {
		c.Assets.Dir = v
	}
	if v := os.Getenv("GB_ASSETS_URL"); v != "" {
		c.Assets.BaseURL = v
	}
	if v := os.Getenv("GB_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("GB_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("GB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GB_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("GB_LOG_FILE"); v != "" {
		c.Logging.File.Path = v
	}
	if v := os.Getenv("GB_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GB_MAX_CONCURRENT: %w", err)
		}
		c.Thumbnails.MaxConcurrent = n
	}
	return nil
}

// Validate checks the configuration and normalizes values that have a
// canonical form.
func (c *Config) Validate() error {
	c.Assets.BaseURL = strings.TrimRight(c.Assets.BaseURL, "/")
	if !c.Assets.Remote() && c.Assets.Dir == "" {
		return errors.New("assets dir or base_url is required")
	}
	if c.Assets.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests_per_second: %g", c.Assets.RequestsPerSecond)
	}
	if c.Assets.CacheEntries < 0 {
		return fmt.Errorf("invalid cache_entries: %d", c.Assets.CacheEntries)
	}
	if c.Render.ThrottleInterval <= 0 || c.Render.DebounceDelay <= 0 {
		return fmt.Errorf("render intervals must be positive: throttle %s, debounce %s",
			c.Render.ThrottleInterval, c.Render.DebounceDelay)
	}
	if c.Thumbnails.MaxConcurrent < 1 {
		return fmt.Errorf("invalid thumbnails max_concurrent: %d", c.Thumbnails.MaxConcurrent)
	}
	if c.Thumbnails.ChunkSize < 1 {
		return fmt.Errorf("invalid thumbnails chunk_size: %d", c.Thumbnails.ChunkSize)
	}
	if c.Thumbnails.Columns < 1 {
		return fmt.Errorf("invalid thumbnails columns: %d", c.Thumbnails.Columns)
	}
	c.Export.Dir = strings.TrimSpace(c.Export.Dir)
	if c.Export.Dir == "" {
		return errors.New("export dir is required")
	}
	if c.Export.Supersample < 1 || c.Export.Supersample > 4 {
		return fmt.Errorf("invalid export supersample: %d", c.Export.Supersample)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	lvl, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return err
	}
	c.Logging.Level = logging.FormatLevel(lvl)
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	if _, err := export.ParseFormat(c.Defaults.Format); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	c.Defaults.Glyph = strings.TrimSpace(c.Defaults.Glyph)
	if err := c.Defaults.Style.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	c.Defaults.Style = c.Defaults.Style.Normalized()
	return nil
}

// DefaultFormat returns the parsed default export format.
func (c *Config) DefaultFormat() export.Format {
	f, err := export.ParseFormat(c.Defaults.Format)
	if err != nil {
		return export.DefaultFormat
	}
	return f
}

// LookaheadSlots converts the lookahead margin from grid rows to slots.
func (c *Config) LookaheadSlots() int {
	return c.Thumbnails.LookaheadRows * c.Thumbnails.Columns
}
