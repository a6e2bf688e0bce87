package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sydlexius/glyphbadge/internal/badge"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Glyph != DefaultGlyph {
		t.Errorf("glyph = %q, want %q", cfg.Defaults.Glyph, DefaultGlyph)
	}
	if cfg.Defaults.Style != badge.DefaultStyle() {
		t.Errorf("style = %+v, want default", cfg.Defaults.Style)
	}
	if cfg.DefaultFormat().Name != "png512" {
		t.Errorf("format = %q, want png512", cfg.DefaultFormat().Name)
	}
	if cfg.Render.ThrottleInterval != 16*time.Millisecond || cfg.Render.DebounceDelay != 10*time.Millisecond {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Thumbnails.MaxConcurrent != 12 || cfg.Thumbnails.ChunkSize != 150 || cfg.Thumbnails.Preload != 40 {
		t.Errorf("thumbnails = %+v", cfg.Thumbnails)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("log format = %q, want text", cfg.Logging.Format)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
assets:
  base_url: https://icons.example.com/v1/
  timeout: 3s
render:
  throttle_interval: 32ms
thumbnails:
  lookahead_rows: 2
  columns: 6
defaults:
  glyph: "  gear  "
  format: SVG
  style:
    background_color: "#112233"
    glyph_color: "#ffffff"
    scale: 90
    rotation: 450
    background_style: flat
    glyph_style: gradient
    corner_radius: 0.5
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Assets.Remote() || cfg.Assets.BaseURL != "https://icons.example.com/v1" {
		t.Errorf("base url = %q", cfg.Assets.BaseURL)
	}
	if cfg.Assets.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", cfg.Assets.Timeout)
	}
	if cfg.Render.ThrottleInterval != 32*time.Millisecond {
		t.Errorf("throttle = %s", cfg.Render.ThrottleInterval)
	}
	if cfg.Render.DebounceDelay != 10*time.Millisecond {
		t.Errorf("debounce should keep its default, got %s", cfg.Render.DebounceDelay)
	}
	if got := cfg.LookaheadSlots(); got != 12 {
		t.Errorf("lookahead slots = %d, want 12", got)
	}
	if cfg.Defaults.Glyph != "gear" {
		t.Errorf("glyph = %q, want trimmed", cfg.Defaults.Glyph)
	}
	if !cfg.DefaultFormat().Vector() {
		t.Errorf("format = %v, want svg", cfg.DefaultFormat())
	}
	want := badge.Style{
		BackgroundColor: "#112233",
		GlyphColor:      "#ffffff",
		Scale:           90,
		Rotation:        90,
		Background:      badge.BackgroundFlat,
		Glyph:           badge.GlyphGradient,
		CornerRadius:    0.5,
	}
	if cfg.Defaults.Style != want {
		t.Errorf("style = %+v, want %+v", cfg.Defaults.Style, want)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "assets:\n  dir: /srv/icons\nexport:\n  dir: /tmp/a\n")
	t.Setenv("GB_ASSETS_DIR", "/opt/icons")
	t.Setenv("GB_EXPORT_DIR", "/tmp/b")
	t.Setenv("GB_DB_PATH", "/tmp/presets.db")
	t.Setenv("GB_LOG_LEVEL", "WARNING")
	t.Setenv("GB_LOG_FILE", "/tmp/glyphbadge.log")
	t.Setenv("GB_MAX_CONCURRENT", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assets.Dir != "/opt/icons" {
		t.Errorf("assets dir = %q", cfg.Assets.Dir)
	}
	if cfg.Export.Dir != "/tmp/b" {
		t.Errorf("export dir = %q", cfg.Export.Dir)
	}
	if cfg.Database.Path != "/tmp/presets.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.File.Path != "/tmp/glyphbadge.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Thumbnails.MaxConcurrent != 4 {
		t.Errorf("max concurrent = %d", cfg.Thumbnails.MaxConcurrent)
	}
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("GB_MAX_CONCURRENT", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric GB_MAX_CONCURRENT")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "assets: [", "loading config file"},
		{"bad format", "defaults:\n  format: gif\n", "unknown export format"},
		{"bad color", "defaults:\n  style:\n    background_color: blue\n    glyph_color: '#fff'\n    scale: 70\n", "invalid style"},
		{"zero concurrency", "thumbnails:\n  max_concurrent: 0\n", "max_concurrent"},
		{"bad level", "logging:\n  level: loud\n", "invalid log level"},
		{"bad supersample", "export:\n  supersample: 9\n", "supersample"},
		{"no assets", "assets:\n  dir: ''\n", "assets dir"},
		{"no export dir", "export:\n  dir: ''\n", "export dir"},
		{"blank export dir", "export:\n  dir: '  '\n", "export dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestDefaultPath_Env(t *testing.T) {
	t.Setenv("GB_CONFIG_PATH", "/etc/glyphbadge.yaml")
	if got := DefaultPath(); got != "/etc/glyphbadge.yaml" {
		t.Errorf("DefaultPath = %q", got)
	}
}
