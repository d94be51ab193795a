// Package jina implements distill.Reader on top of the Jina reader proxy.
package jina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// DefaultBaseURL is the public reader endpoint.
const DefaultBaseURL = "https://r.jina.ai"

// DefaultTimeout bounds a single reader call.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much reader output is buffered.
const maxResponseSize = 5 << 20

const contentMarker = "Markdown Content:"

// Ensure Reader implements distill.Reader at compile time.
var _ distill.Reader = (*Reader)(nil)

// Reader fetches a plain-text rendition of a page through the reader proxy.
// An API key is optional; anonymous calls are rate limited upstream.
type Reader struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// Option configures a Reader.
type Option func(*Reader)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(r *Reader) {
		r.apiKey = key
	}
}

// WithBaseURL overrides the reader endpoint.
func WithBaseURL(u string) Option {
	return func(r *Reader) {
		r.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) {
		r.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) {
		r.client = c
	}
}

// NewReader creates a new Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		client:  &http.Client{},
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the title and text the proxy produced for pageURL.
func (r *Reader) Read(ctx context.Context, pageURL string) (*distill.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+pageURL, nil)
	if err != nil {
		return nil, distill.Errorf(distill.EINVALID, "invalid reader request: %v", err)
	}
	req.Header.Set("Accept", "text/plain")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, distill.ProviderErrorf(resp.StatusCode, "reader returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading reader response: %w", err)
	}

	return Parse(string(body)), nil
}

// Parse splits reader output into a title and body text. The proxy prefixes
// its output with "Title:" and "URL Source:" header lines followed by a
// "Markdown Content:" marker; when the header is missing the first markdown
// heading is used as the title.
func Parse(body string) *distill.Article {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var title string
	text := body
	if header, content, ok := strings.Cut(body, contentMarker); ok {
		text = content
		for _, line := range strings.Split(header, "\n") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(line), "Title:"); ok {
				title = strings.TrimSpace(v)
				break
			}
		}
	}

	if title == "" {
		for _, line := range strings.Split(text, "\n") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
				title = strings.TrimSpace(v)
				break
			}
		}
	}

	return &distill.Article{Title: title, Text: distill.NormalizeText(text)}
}
