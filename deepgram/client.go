// Package deepgram implements distill.AudioTranscriber on top of the
// Deepgram pre-recorded transcription API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// DefaultBaseURL is the hosted API endpoint.
const DefaultBaseURL = "https://api.deepgram.com"

// DefaultTimeout bounds one transcription call.
const DefaultTimeout = 90 * time.Second

const listenPath = "/v1/listen?smart_format=true&punctuate=true&paragraphs=true&language=en"

// Ensure Client implements distill.AudioTranscriber at compile time.
var _ distill.AudioTranscriber = (*Client)(nil)

type response struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results *struct {
		Channels []struct {
			Alternatives []alternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type alternative struct {
	Transcript string `json:"transcript"`
	Paragraphs *struct {
		Transcript string `json:"transcript"`
	} `json:"paragraphs"`
}

// Client sends audio for transcription.
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

// TranscribeAudio returns the paragraph-formatted transcript of f.
func (c *Client) TranscribeAudio(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
	if c.apiKey == "" {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "deepgram API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listenPath, bytes.NewReader(f.Data))
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "building transcription request: %v", err)
	}
	contentType := f.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "transcription service unreachable", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e := distill.ProviderErrorf(resp.StatusCode, "transcription service returned HTTP %d", resp.StatusCode)
		e.Details = strings.TrimSpace(string(msg))
		return nil, e
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "transcription service returned an unexpected response", Details: err.Error()}
	}
	if body.Results == nil || len(body.Results.Channels) == 0 || len(body.Results.Channels[0].Alternatives) == 0 {
		return nil, &distill.Error{
			Code:    distill.EPROVIDER,
			Message: "transcription service returned an unexpected response",
			Details: "missing results.channels[0].alternatives[0]",
		}
	}

	alt := body.Results.Channels[0].Alternatives[0]
	text := alt.Transcript
	if alt.Paragraphs != nil && strings.TrimSpace(alt.Paragraphs.Transcript) != "" {
		text = alt.Paragraphs.Transcript
	}
	return &distill.Transcript{
		Text:     strings.TrimSpace(text),
		Duration: body.Metadata.Duration,
	}, nil
}
