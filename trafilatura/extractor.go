// Package trafilatura extracts main page content with go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/distill"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements distill.Extractor at compile time.
var _ distill.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
// Its fallback mode runs readability and dom-distiller internally and keeps
// the best candidate, which helps on pages with unusual markup.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*distill.Article, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, distill.Errorf(distill.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, distill.Errorf(distill.EINVALID, "invalid page URL: %v", err)
		}
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &distill.Article{
		Title:       strings.TrimSpace(result.Metadata.Title),
		Byline:      strings.TrimSpace(result.Metadata.Author),
		Excerpt:     strings.TrimSpace(result.Metadata.Description),
		SiteName:    strings.TrimSpace(result.Metadata.Sitename),
		ContentHTML: contentHTML,
		Text:        result.ContentText,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
