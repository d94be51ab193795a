// Package unstructured implements distill.DocumentTranscriber on top of the
// Unstructured partition API.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// DefaultBaseURL is the hosted partition endpoint.
const DefaultBaseURL = "https://api.unstructuredapp.io"

// DefaultTimeout bounds one OCR call. Hi-res partitioning of a long PDF is slow.
const DefaultTimeout = 90 * time.Second

const partitionPath = "/general/v0/general"

var titleType = regexp.MustCompile(`(?i)title|header|heading`)

// Ensure Client implements distill.DocumentTranscriber at compile time.
var _ distill.DocumentTranscriber = (*Client)(nil)

// Element is one partitioned piece of a document.
type Element struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ElementID string          `json:"element_id"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Client uploads documents for hi-res partitioning.
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

// NewClient creates a Client. An empty apiKey yields a Client whose calls
// fail with ENOTCONFIGURED.
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

// TranscribeDocument partitions f and merges its element texts.
func (c *Client) TranscribeDocument(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
	if c.apiKey == "" {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "unstructured API key is not configured")
	}

	body, contentType, err := encodeForm(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+partitionPath, body)
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "building partition request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("unstructured-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "document service unreachable", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e := distill.ProviderErrorf(resp.StatusCode, "document service returned HTTP %d", resp.StatusCode)
		e.Details = strings.TrimSpace(string(msg))
		return nil, e
	}

	elements, err := decodeElements(resp.Body)
	if err != nil {
		return nil, err
	}
	return merge(elements), nil
}

func encodeForm(f *distill.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("files", f.Name)
	if err != nil {
		return nil, "", distill.Errorf(distill.EINTERNAL, "encoding upload: %v", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", distill.Errorf(distill.EINTERNAL, "encoding upload: %v", err)
	}
	for k, v := range map[string]string{"strategy": "hi_res", "languages": "eng"} {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", distill.Errorf(distill.EINTERNAL, "encoding upload: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", distill.Errorf(distill.EINTERNAL, "encoding upload: %v", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeElements fails closed: the body must be a JSON array and every
// element must carry a type.
func decodeElements(r io.Reader) ([]Element, error) {
	var elements []Element
	if err := json.NewDecoder(r).Decode(&elements); err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "document service returned an unexpected response", Details: err.Error()}
	}
	for i, el := range elements {
		if el.Type == "" {
			return nil, &distill.Error{
				Code:    distill.EPROVIDER,
				Message: "document service returned an unexpected response",
				Details: fmt.Sprintf("element %d has no type", i),
			}
		}
	}
	return elements, nil
}

func merge(elements []Element) *distill.Transcript {
	var t distill.Transcript
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if t.Title == "" && titleType.MatchString(el.Type) {
			t.Title = text
		}
		texts = append(texts, text)
	}
	t.Text = strings.Join(texts, "\n\n")
	t.Elements = len(texts)
	return &t
}
