package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManager_Defaults(t *testing.T) {
	mgr, logger := NewManager(DefaultConfig(), io.Discard)
	defer mgr.Close() //nolint:errcheck

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled at default level")
	}
	if got := mgr.Config().Format; got != "text" {
		t.Errorf("format = %q, want text", got)
	}
}

func TestManager_ReconfigureLevel(t *testing.T) {
	mgr, logger := NewManager(Config{Level: "info", Format: "json"}, io.Discard)
	defer mgr.Close() //nolint:errcheck
	ctx := context.Background()

	mgr.Reconfigure(Config{Level: "debug", Format: "json"})
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug disabled after switching to debug")
	}

	mgr.Reconfigure(Config{Level: "error", Format: "json"})
	if logger.Enabled(ctx, slog.LevelWarn) || !logger.Enabled(ctx, slog.LevelError) {
		t.Error("error level not applied")
	}
}

func TestManager_DerivedLoggersFollowSwap(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(DefaultConfig(), &buf)
	defer mgr.Close() //nolint:errcheck

	render := logger.With(slog.String("component", "render")).WithGroup("build")
	render.Info("preview committed", "glyph", "gear")
	if line := buf.String(); !strings.Contains(line, "component=render") || !strings.Contains(line, "build.glyph=gear") {
		t.Errorf("text output = %q", line)
	}

	buf.Reset()
	mgr.Reconfigure(Config{Level: "info", Format: "json"})
	render.Info("preview committed", "glyph", "gear")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("derived logger still writes text: %v (%q)", err, buf.String())
	}
	if rec["component"] != "render" {
		t.Errorf("component = %v", rec["component"])
	}
	build, _ := rec["build"].(map[string]any)
	if build["glyph"] != "gear" {
		t.Errorf("group = %v", rec["build"])
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "glyphbadge.log")
	var console bytes.Buffer
	mgr, logger := NewManager(Config{Level: "info", Format: "json", File: FileConfig{Path: logFile, MaxSizeMB: 1}}, &console)

	logger.Info("catalog loaded", "entries", 3)
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"catalog loaded"`) {
		t.Errorf("log file = %q", data)
	}
	if console.String() != string(data) {
		t.Errorf("console and file differ:\n%s\n%s", console.String(), data)
	}
}

func TestManager_ReconfigureSameConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Level: "info", Format: "text"}
	mgr, logger := NewManager(cfg, &buf)
	defer mgr.Close() //nolint:errcheck

	mgr.Reconfigure(cfg)
	logger.Info("still here")
	if !strings.Contains(buf.String(), "still here") {
		t.Errorf("output lost after no-op reconfigure: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"WARNING", slog.LevelWarn, false},
		{" Error ", slog.LevelError, false},
		{"", slog.LevelInfo, true},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error"} {
		l, err := ParseLevel(name)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatLevel(l); got != name {
			t.Errorf("FormatLevel(ParseLevel(%q)) = %q", name, got)
		}
	}
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat("text") || !ValidFormat("json") {
		t.Error("text and json should be valid")
	}
	if ValidFormat("xml") || ValidFormat("") {
		t.Error("xml and empty should be invalid")
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if s := cfg.String(); s != "level=info format=json" {
		t.Errorf("got %q", s)
	}

	cfg.File = FileConfig{Path: "/var/log/glyphbadge.log", MaxBackups: 5}
	want := "level=info format=json file=/var/log/glyphbadge.log rotate=10MBx5 max_age=30d"
	if s := cfg.String(); s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}
