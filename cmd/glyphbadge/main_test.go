package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/catalog"
	"github.com/sydlexius/glyphbadge/internal/preset"
)

const (
	squareGlyph = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><path d="M2 2h12v12H2z"/></svg>`
	circleGlyph = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><circle cx="8" cy="8" r="6"/></svg>`
	richCatalog = `[
  {"name": "gear", "displayName": "Gear", "tags": ["settings", "cog"]},
  {"name": "circle-fill", "tags": "shape round"},
  {"name": "missing", "displayName": "Missing"}
]`
)

// env is an isolated installation: assets, config, database and export
// directory under one temp dir.
type env struct {
	root   string
	assets string
	out    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		root:   root,
		assets: filepath.Join(root, "assets"),
		out:    filepath.Join(root, "out"),
		config: filepath.Join(root, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(e.assets, 0o755))
	write(t, filepath.Join(e.assets, "index.json"), richCatalog)
	write(t, filepath.Join(e.assets, "gear.svg"), squareGlyph)
	write(t, filepath.Join(e.assets, "circle-fill.svg"), circleGlyph)

	write(t, e.config, `
assets:
  dir: `+e.assets+`
database:
  path: `+filepath.Join(root, "presets.db")+`
export:
  dir: `+e.out+`
thumbnails:
  columns: 2
  preload: -1
defaults:
  glyph: gear
logging:
  level: error
`)
	for _, k := range []string{"GB_ASSETS_DIR", "GB_ASSETS_URL", "GB_DB_PATH", "GB_EXPORT_DIR", "GB_LOG_LEVEL", "GB_LOG_FORMAT", "GB_LOG_FILE", "GB_MAX_CONCURRENT"} {
		t.Setenv(k, "")
	}
	return e
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// exec runs the CLI and returns stdout and stderr.
func (e *env) exec(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"--config", e.config}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (e *env) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.exec(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return stdout
}

func TestSearch(t *testing.T) {
	e := newEnv(t)

	out := e.mustExec(t, "search")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Circle Fill")
	assert.Contains(t, out, "3 of 3 glyphs")

	out = e.mustExec(t, "search", "cog", "--json")
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "gear", entries[0].Name)
}

func TestSearch_UnreadableCatalog(t *testing.T) {
	e := newEnv(t)
	write(t, filepath.Join(e.assets, "index.json"), `{"nope": true}`)

	_, _, err := e.exec(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading catalog")
}

func TestExport_SVGToDefaultDir(t *testing.T) {
	e := newEnv(t)

	out := e.mustExec(t, "export", "--format", "svg", "--bg", "#112233")
	target := filepath.Join(e.out, "gear-icon.svg")
	assert.Contains(t, out, "wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	assert.Contains(t, doc, `width="512"`)
}

func TestExport_PNGToFileAndStdout(t *testing.T) {
	e := newEnv(t)

	target := filepath.Join(e.root, "badge.png")
	e.mustExec(t, "export", "circle-fill", "--format", "png64", "--out", target, "--glyph-style", "flat")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	stdout := e.mustExec(t, "export", "circle-fill", "--format", "png32", "--out", "-")
	assert.True(t, strings.HasPrefix(stdout, "\x89PNG"))
}

func TestExport_Errors(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.exec(t, "export", "missing")
	var fe *assets.FetchError
	require.ErrorAs(t, err, &fe)
	assert.True(t, assets.IsNotFound(err))

	_, _, err = e.exec(t, "export", "--format", "gif")
	assert.ErrorContains(t, err, "unknown export format")

	_, _, err = e.exec(t, "export", "--bg-style", "plaid")
	assert.ErrorContains(t, err, "unknown background style")

	_, _, err = e.exec(t, "export", "--scale", "500")
	assert.ErrorContains(t, err, "scale")

	_, _, err = e.exec(t, "export", "../etc/passwd")
	assert.True(t, errors.Is(err, assets.ErrInvalidName), "got %v", err)
}

func TestExportTarget(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join("/x", "a.svg"), exportTarget("", "/x", "a.svg"))
	assert.Equal(t, filepath.Join(dir, "a.svg"), exportTarget(dir, "/x", "a.svg"))
	assert.Equal(t, filepath.Join("new", "a.svg"), exportTarget("new/", "/x", "a.svg"))
	assert.Equal(t, "file.png", exportTarget("file.png", "/x", "a.svg"))
}

func TestPresets(t *testing.T) {
	e := newEnv(t)

	out := e.mustExec(t, "preset", "save", "night", "--bg", "#000000", "--glyph", "circle-fill", "--format", "SVG")
	assert.Contains(t, out, "saved preset night")

	out = e.mustExec(t, "preset", "list")
	assert.Contains(t, out, "default (built-in)")
	assert.Contains(t, out, "night")

	out = e.mustExec(t, "preset", "show", "night")
	assert.Contains(t, out, "glyph: circle-fill")
	assert.Contains(t, out, "format: svg")
	assert.Contains(t, out, "#000000")

	e.mustExec(t, "export", "--preset", "night")
	_, err := os.Stat(filepath.Join(e.out, "circle-fill-icon.svg"))
	require.NoError(t, err)

	// The built-in preset's glyph is not in this asset set.
	_, _, err = e.exec(t, "export", "--all")
	assert.ErrorContains(t, err, "preset default")
	_, err = os.Stat(filepath.Join(e.out, "night-circle-fill-icon.svg"))
	require.NoError(t, err)

	_, _, err = e.exec(t, "preset", "delete", "default")
	assert.ErrorIs(t, err, preset.ErrBuiltin)

	e.mustExec(t, "preset", "delete", "night")
	_, _, err = e.exec(t, "preset", "show", "night")
	assert.ErrorIs(t, err, preset.ErrNotFound)
}

func TestExportAll_AggregatesFailures(t *testing.T) {
	e := newEnv(t)
	e.mustExec(t, "preset", "save", "a", "--glyph", "gear", "--format", "svg")
	e.mustExec(t, "preset", "save", "b", "--glyph", "missing", "--format", "svg")

	_, _, err := e.exec(t, "export", "--all")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "preset b")
	assert.Contains(t, msg, "preset default")
	assert.NotContains(t, msg, "preset a:")

	_, err = os.Stat(filepath.Join(e.out, "a-gear-icon.svg"))
	assert.NoError(t, err)
}

func TestExportAll_OutDirWithoutSeparator(t *testing.T) {
	e := newEnv(t)
	e.mustExec(t, "preset", "save", "a", "--glyph", "gear", "--format", "svg")

	batch := filepath.Join(e.root, "batch")
	_, _, err := e.exec(t, "export", "--all", "--out", batch)
	// Only the built-in preset fails: its glyph is not in this asset set.
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "preset a:")
	_, err = os.Stat(filepath.Join(batch, "a-gear-icon.svg"))
	assert.NoError(t, err)
}

func TestExport_EmptyExportDirRejected(t *testing.T) {
	e := newEnv(t)
	data, err := os.ReadFile(e.config)
	require.NoError(t, err)
	write(t, e.config, strings.Replace(string(data), "  dir: "+e.out, "  dir: ''", 1))

	_, _, err = e.exec(t, "export", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export dir is required")
}

func TestManifest(t *testing.T) {
	e := newEnv(t)

	out := e.mustExec(t, "manifest", e.assets)
	var flat catalog.FlatManifest
	require.NoError(t, json.Unmarshal([]byte(out), &flat))
	assert.Equal(t, []string{"circle-fill", "gear"}, flat.Icons)

	target := filepath.Join(e.root, "rich.json")
	e.mustExec(t, "manifest", e.assets, "--rich", "--out", target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	entries, err := catalog.Decode(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Circle Fill", entries[0].DisplayName)
}

func TestWatchOnce(t *testing.T) {
	e := newEnv(t)
	style := filepath.Join(e.root, "badge.yaml")
	write(t, style, "glyph: circle-fill\nstyle:\n  scale: 90\n  background_style: flat\n")

	out := e.mustExec(t, "watch", style, "--once")
	assert.Contains(t, out, "preview  circle-fill")

	data, err := os.ReadFile(filepath.Join(e.root, "badge.preview.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestWatchOnce_RenderFailure(t *testing.T) {
	e := newEnv(t)
	style := filepath.Join(e.root, "badge.yaml")
	preview := filepath.Join(e.root, "preview.svg")
	write(t, style, "glyph: missing\n")
	write(t, preview, "previous")

	_, _, err := e.exec(t, "watch", style, "--once", "--out", preview)
	require.Error(t, err)

	data, err := os.ReadFile(preview)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestThumbs(t *testing.T) {
	e := newEnv(t)
	cache := filepath.Join(e.root, "thumbs")

	require.NoError(t, os.MkdirAll(cache, 0o755))
	write(t, filepath.Join(cache, "retired.svg"), squareGlyph)

	out := e.mustExec(t, "thumbs", "--cache-dir", cache, "--pages", "0", "--rows", "1", "--prune")
	assert.Contains(t, out, "3 glyphs: 2 loaded, 1 error, 0 unloaded")
	assert.Contains(t, out, "error  missing")

	data, err := os.ReadFile(filepath.Join(cache, "gear.svg"))
	require.NoError(t, err)
	assert.Equal(t, squareGlyph, string(data))

	assert.Contains(t, out, "pruned 1 stale files")
	_, err = os.Stat(filepath.Join(cache, "retired.svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	assert.Contains(t, e.mustExec(t, "version"), "glyphbadge version")

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.mustExec(t, "version", "--json")), &info))
	assert.Contains(t, info, "go_version")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.exec(t, "version", "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}
