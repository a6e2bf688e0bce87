package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where log records go and how they look.
type Config struct {
	Level  string     `yaml:"level" json:"level"`
	Format string     `yaml:"format" json:"format"`
	File   FileConfig `yaml:"file" json:"file,omitzero"`
}

// FileConfig enables a rotating log file next to the console output. An
// empty Path disables it.
type FileConfig struct {
	Path       string `yaml:"path" json:"path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress" json:"compress,omitempty"`
}

// DefaultConfig returns the CLI defaults: info level, text on the console,
// no log file.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		File: FileConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// String returns a one-line summary suitable for a debug log attribute.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if f := c.File.withDefaults(); f.Path != "" {
		s += fmt.Sprintf(" file=%s rotate=%dMBx%d max_age=%dd", f.Path, f.MaxSizeMB, f.MaxBackups, f.MaxAgeDays)
	}
	return s
}

func (f FileConfig) withDefaults() FileConfig {
	if f.MaxSizeMB <= 0 {
		f.MaxSizeMB = 10
	}
	if f.MaxBackups <= 0 {
		f.MaxBackups = 3
	}
	if f.MaxAgeDays <= 0 {
		f.MaxAgeDays = 30
	}
	return f
}

// ParseLevel converts a level name to a slog.Level. Names are
// case-insensitive and "warning" is accepted for warn.
func ParseLevel(s string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// ValidFormat reports whether s is "text" or "json".
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

// FormatLevel is the inverse of ParseLevel.
func FormatLevel(l slog.Level) string {
	return strings.ToLower(l.String())
}

// Manager owns the output of a logger and can reconfigure it while loggers
// derived from it are in use.
type Manager struct {
	level   *slog.LevelVar
	handler *SwappableHandler
	console io.Writer

	mu   sync.Mutex
	cfg  Config
	file io.Closer
}

// NewManager creates a Manager and the logger it controls. Console output
// goes to console, or to stderr when console is nil, so stdout stays free
// for command output. An unparseable level falls back to info.
func NewManager(cfg Config, console io.Writer) (*Manager, *slog.Logger) {
	if console == nil {
		console = os.Stderr
	}
	m := &Manager{level: &slog.LevelVar{}, console: console, cfg: cfg}
	lvl, _ := ParseLevel(cfg.Level)
	m.level.Set(lvl)

	w, file := m.open(cfg.File)
	m.file = file
	m.handler = NewSwappableHandler(newHandler(w, m.level, cfg.Format))
	return m, slog.New(m.handler)
}

// Reconfigure applies cfg. A level change takes effect immediately; a
// format or file change reopens the output and swaps the handler under
// every existing logger.
func (m *Manager) Reconfigure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lvl, _ := ParseLevel(cfg.Level)
	m.level.Set(lvl)

	if cfg.Format != m.cfg.Format || cfg.File != m.cfg.File {
		if m.file != nil {
			_ = m.file.Close()
		}
		w, file := m.open(cfg.File)
		m.file = file
		m.handler.Swap(newHandler(w, m.level, cfg.Format))
	}
	m.cfg = cfg
}

// Config returns the configuration currently in effect.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Close closes the log file, if any. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// open returns the console alone, or the console teed into a lumberjack
// rotating file together with that file's closer.
func (m *Manager) open(f FileConfig) (io.Writer, io.Closer) {
	if f.Path == "" {
		return m.console, nil
	}
	f = f.withDefaults()
	lj := &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAge:     f.MaxAgeDays,
		Compress:   f.Compress,
	}
	return io.MultiWriter(m.console, lj), lj
}

func newHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
