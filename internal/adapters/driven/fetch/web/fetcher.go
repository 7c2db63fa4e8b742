// Package web provides the HTTP fetcher for URL sources and a same-host
// link crawler.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Fetcher implements the interfaces.
var (
	_ driven.Fetcher = (*Fetcher)(nil)
	_ driven.Crawler = (*Fetcher)(nil)
)

// Default configuration values.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxBytes  = 50 << 20
	DefaultMaxPages  = 200
	DefaultUserAgent = "sercha-ingest/1.0"
)

// Fetcher downloads web pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxPages  int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBytes limits the size of a downloaded body.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithMaxPages limits how many pages a crawl returns.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// New creates a web fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultMaxBytes,
		maxPages:  DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the fetcher name.
func (f *Fetcher) Name() string {
	return "web"
}

// Accepts reports whether the source is a URL.
func (f *Fetcher) Accepts(src domain.Source) bool {
	return src.IsURL()
}

// Fetch downloads the page. Redirects are followed; URI holds the final URL.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*domain.RawDocument, error) {
	raw, err := f.get(ctx, src.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	raw.Source = src
	return raw, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("get %s: body exceeds %d bytes", url, f.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return &domain.RawDocument{
		URI:      resp.Request.URL.String(),
		MIMEType: contentType,
		Content:  body,
		Metadata: map[string]any{"status": resp.StatusCode},
	}, nil
}
