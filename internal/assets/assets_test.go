package assets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGlyphPath(t *testing.T) {
	p, err := GlyphPath("  heart-fill ")
	require.NoError(t, err)
	assert.Equal(t, "heart-fill.svg", p)

	for _, bad := range []string{"", "  ", "../etc/passwd", "a/b", `a\b`, "..", "."} {
		_, err := GlyphPath(bad)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", bad)
	}

	name, ok := NameFromPath("gear.svg")
	assert.True(t, ok)
	assert.Equal(t, "gear", name)
	_, ok = NameFromPath("index.json")
	assert.False(t, ok)
}

func TestDirSource(t *testing.T) {
	fsys := fstest.MapFS{
		"index.json": {Data: []byte(`["gear"]`)},
		"gear.svg":   {Data: []byte(`<svg/>`)},
		"heart.svg":  {Data: []byte(`<svg/>`)},
		"sub":        {Mode: os.ModeDir},
	}
	src := NewDirSource(fsys, "", testLogger())
	ctx := context.Background()

	cat, err := src.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, `["gear"]`, string(cat))

	g, err := src.Glyph(ctx, "gear")
	require.NoError(t, err)
	assert.Equal(t, `<svg/>`, string(g))

	_, err = src.Glyph(ctx, "missing")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindGlyph, fe.Kind)
	assert.True(t, IsNotFound(err))

	names, err := src.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gear", "heart"}, names)
}

func TestDirSource_OversizedGlyph(t *testing.T) {
	fsys := fstest.MapFS{
		"huge.svg":  {Data: []byte(strings.Repeat("x", maxGlyphBytes+1))},
		"limit.svg": {Data: []byte(strings.Repeat("x", maxGlyphBytes))},
	}
	src := NewDirSource(fsys, "", testLogger())

	_, err := src.Glyph(context.Background(), "huge")
	assert.ErrorIs(t, err, ErrTooLarge)

	g, err := src.Glyph(context.Background(), "limit")
	require.NoError(t, err)
	assert.Len(t, g, maxGlyphBytes)
}

func TestHTTPSource_OversizedGlyph(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(strings.Repeat("x", maxGlyphBytes+1)))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, HTTPOptions{Retries: 2, RetryBase: time.Millisecond}, testLogger())
	_, err := src.Glyph(context.Background(), "huge")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, int32(1), calls.Load(), "an oversized body is not retried")
}

func TestHTTPSource_UserAgent(t *testing.T) {
	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		_, _ = w.Write([]byte(`<svg/>`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, HTTPOptions{UserAgent: "glyphbadge/1.2.3"}, testLogger())
	_, err := src.Glyph(context.Background(), "gear")
	require.NoError(t, err)
	assert.Equal(t, "glyphbadge/1.2.3", agent.Load())
}

func TestHTTPSource_FetchAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/icons/index.json":
			_, _ = w.Write([]byte(`[]`))
		case "/icons/gear.svg":
			_, _ = w.Write([]byte(`<svg id="gear"/>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/icons/", HTTPOptions{}, testLogger())
	ctx := context.Background()

	cat, err := src.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(cat))

	g, err := src.Glyph(ctx, "gear")
	require.NoError(t, err)
	assert.Equal(t, `<svg id="gear"/>`, string(g))

	_, err = src.Glyph(ctx, "nope")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), `fetching glyph "nope": status 404`)
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<svg/>`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, HTTPOptions{Retries: 3, RetryBase: time.Millisecond}, testLogger())
	g, err := src.Glyph(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, `<svg/>`, string(g))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, HTTPOptions{Retries: 1, RetryBase: time.Millisecond}, testLogger())
	_, err := src.Glyph(context.Background(), "x")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSource_InvalidNameNeverRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, HTTPOptions{}, testLogger()).Glyph(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Zero(t, calls.Load())
}

type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	fail    map[string]bool
}

func (s *countingSource) Catalog(context.Context) ([]byte, error) { return []byte(`[]`), nil }

func (s *countingSource) Glyph(_ context.Context, name string) ([]byte, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.fail[name] {
		return nil, &FetchError{Kind: KindGlyph, Name: name, Err: ErrNotFound}
	}
	return []byte("<svg id=\"" + name + "\"/>"), nil
}

func TestCache_SharesConcurrentFetches(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	c := NewCache(src, 4)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Glyph(context.Background(), "gear")
			if err == nil {
				results[i] = string(data)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, r := range results {
		assert.Equal(t, `<svg id="gear"/>`, r)
	}

	_, err := c.Glyph(context.Background(), "gear")
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	hits, _ := c.Stats()
	assert.GreaterOrEqual(t, hits, uint64(1))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, 2)
	ctx := context.Background()

	for _, n := range []string{"a", "b", "a", "c"} {
		_, err := c.Glyph(ctx, n)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int32(3), src.calls.Load())

	_, err := c.Glyph(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load(), "a stays cached")

	_, err = c.Glyph(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int32(4), src.calls.Load(), "b was evicted")
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	src := &countingSource{fail: map[string]bool{"x": true}}
	c := NewCache(src, 2)
	for range 2 {
		_, err := c.Glyph(context.Background(), "x")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCache_CallerCancellation(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	c := NewCache(src, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Glyph(ctx, "slow")
	assert.ErrorIs(t, err, context.Canceled)
	close(src.release)
}
