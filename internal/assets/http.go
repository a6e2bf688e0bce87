package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// HTTPOptions tunes an HTTPSource.
type HTTPOptions struct {
	Catalog           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           uint64
	RetryBase         time.Duration
	UserAgent         string
}

// HTTPSource fetches assets from a static file host. Requests are paced by a
// token bucket and transient failures (transport errors, 429, 5xx) are
// retried with exponential backoff.
type HTTPSource struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	baseURL string
	catalog string
	retries uint64
	base    time.Duration
	agent   string
}

// NewHTTPSource creates a source for assets under baseURL.
func NewHTTPSource(baseURL string, opts HTTPOptions, logger *slog.Logger) *HTTPSource {
	if opts.Catalog == "" {
		opts.Catalog = RichCatalog
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}
	return &HTTPSource{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(slog.String("component", "assets"), slog.String("source", "http")),
		baseURL: strings.TrimRight(baseURL, "/"),
		catalog: opts.Catalog,
		retries: opts.Retries,
		base:    opts.RetryBase,
		agent:   opts.UserAgent,
	}
}

// Catalog fetches the catalog document.
func (s *HTTPSource) Catalog(ctx context.Context) ([]byte, error) {
	return s.fetch(ctx, KindCatalog, s.catalog, s.baseURL+"/"+s.catalog, maxCatalogBytes)
}

// Glyph fetches the markup document of one glyph.
func (s *HTTPSource) Glyph(ctx context.Context, name string) ([]byte, error) {
	p, err := GlyphPath(name)
	if err != nil {
		return nil, &FetchError{Kind: KindGlyph, Name: name, Err: err}
	}
	return s.fetch(ctx, KindGlyph, name, s.baseURL+"/"+url.PathEscape(p), maxGlyphBytes)
}

func (s *HTTPSource) fetch(ctx context.Context, kind, name, reqURL string, limit int64) ([]byte, error) {
	var (
		body   []byte
		status int
	)
	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		var err error
		body, status, err = s.get(ctx, reqURL, limit)
		if err == nil {
			return nil
		}
		if ctx.Err() == nil && retryable(status) {
			s.logger.Debug("retrying asset request",
				slog.String("url", reqURL),
				slog.Int("status", status),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, &FetchError{Kind: kind, Name: name, Status: status, Err: err}
	}
	s.logger.Debug("asset fetched", slog.String("kind", kind), slog.String("name", name), slog.Int("bytes", len(body)))
	return body, nil
}

// get performs one request. status is zero for transport failures.
func (s *HTTPSource) get(ctx context.Context, reqURL string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	if s.agent != "" {
		req.Header.Set("User-Agent", s.agent)
	}
	resp, err := s.client.Do(req) //nolint:gosec // URL built from configured base and validated names
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, ErrNotFound
	default:
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

// IsNotFound reports whether err means the asset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
