// Package readability extracts main page content with go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/distill"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements distill.Extractor at compile time.
var _ distill.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
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

	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, distill.Errorf(distill.EINVALID, "invalid page URL: %v", err)
		}
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, err
	}

	return &distill.Article{
		Title:       strings.TrimSpace(article.Title),
		Byline:      strings.TrimSpace(article.Byline),
		Excerpt:     strings.TrimSpace(article.Excerpt),
		SiteName:    strings.TrimSpace(article.SiteName),
		ContentHTML: article.Content,
		Text:        article.TextContent,
	}, nil
}
