package distill

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Meta keys shared by the URL and file pipelines.
const (
	MetaProvider    = "provider"
	MetaStages      = "stages"
	MetaLinks       = "links"
	MetaContentHash = "contentHash"
	MetaTokens      = "tokens"
	MetaQuality     = "quality"
	MetaSourceURL   = "sourceUrl"
	MetaKind        = "kind"
	MetaBytes       = "bytes"
	MetaFilename    = "filename"
	MetaElements    = "elements"
	MetaDuration    = "durationSeconds"
)

// Result is the outcome of a successful extraction.
//
// Text is trimmed and normalized and Length is its rune count. Use
// NewResult to build a Result that honours both.
type Result struct {
	Text     string         `json:"text"`
	Title    string         `json:"title,omitempty"`
	Byline   string         `json:"byline,omitempty"`
	Excerpt  string         `json:"excerpt,omitempty"`
	Length   int            `json:"length"`
	SiteName string         `json:"siteName,omitempty"`
	Meta     map[string]any `json:"meta"`
}

// NewResult returns a Result holding the normalized text.
func NewResult(text string) *Result {
	r := &Result{Meta: make(map[string]any)}
	r.SetText(text)
	return r
}

// SetText normalizes text and updates Length accordingly.
func (r *Result) SetText(text string) {
	r.Text = NormalizeText(text)
	r.Length = utf8.RuneCountInString(r.Text)
}

// Empty reports whether the result carries no usable text.
func (r *Result) Empty() bool {
	return r == nil || r.Text == ""
}

var (
	trailingSpace = regexp.MustCompile(`[ \t\f\v]+\n`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText converts line endings to \n, strips trailing whitespace from
// every line, collapses runs of three or more newlines into a single blank
// line and trims the result.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// URLExtractor turns a web page into a Result.
type URLExtractor interface {
	// Extract returns EINVALID for a malformed URL, ENOCONTENT when no
	// provider produced any text and EEXTRACT when every provider failed.
	Extract(ctx context.Context, url string) (*Result, error)
}

// FileExtractor turns an uploaded file into a Result.
type FileExtractor interface {
	// Extract returns ETOOLARGE for oversized files, ENOTCONFIGURED when the
	// file kind has no provider and EPROVIDER when the provider fails.
	Extract(ctx context.Context, f *File) (*Result, error)
}

// ResultWriter persists results for offline use.
type ResultWriter interface {
	// WriteResult stores r and returns where it was written.
	WriteResult(ctx context.Context, r *Result) (string, error)
}

// TokenCounter counts tokens in text for a specific model. Results carry the
// count in meta.tokens so callers can budget downstream prompts.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
