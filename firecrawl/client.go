// Package firecrawl implements distill.Scraper on top of the Firecrawl
// scrape API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// DefaultBaseURL is the hosted API endpoint.
const DefaultBaseURL = "https://api.firecrawl.dev"

// DefaultTimeout bounds one scrape.
const DefaultTimeout = 60 * time.Second

// dataImage matches inline base64 images, which bloat the markdown without
// adding readable content.
var dataImage = regexp.MustCompile(`!\[[^\]]*\]\(data:image/[^)]*\)`)

// Ensure Client implements distill.Scraper at compile time.
var _ distill.Scraper = (*Client)(nil)

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title      string `json:"title"`
			SourceURL  string `json:"sourceURL"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// Client calls the scrape endpoint.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a Client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scrape fetches the main content of pageURL as markdown and HTML.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*distill.Scrape, error) {
	if c.apiKey == "" {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "firecrawl API key is not configured")
	}

	payload, err := json.Marshal(scrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "encoding scrape request: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "building scrape request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "scrape service unreachable", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e := distill.ProviderErrorf(resp.StatusCode, "scrape service returned HTTP %d", resp.StatusCode)
		e.Details = strings.TrimSpace(string(msg))
		return nil, e
	}

	var body scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "scrape service returned an unexpected response", Details: err.Error()}
	}
	if !body.Success || body.Data == nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "scrape failed", Details: body.Error}
	}

	source := body.Data.Metadata.SourceURL
	if source == "" {
		source = pageURL
	}
	return &distill.Scrape{
		Title:    strings.TrimSpace(body.Data.Metadata.Title),
		Markdown: StripDataImages(body.Data.Markdown),
		HTML:     body.Data.HTML,
		URL:      source,
	}, nil
}

// StripDataImages removes inline data-URI images from markdown.
func StripDataImages(md string) string {
	return strings.TrimSpace(dataImage.ReplaceAllString(md, ""))
}
