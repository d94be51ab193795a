// Package opengraph reads page-level metadata from OpenGraph tags.
package opengraph

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/fwojciec/distill"
)

// Ensure Sniffer implements distill.Sniffer at compile time.
var _ distill.Sniffer = (*Sniffer)(nil)

// Sniffer extracts title, description and site name from a page head.
// OpenGraph tags win; plain HTML tags fill whatever OpenGraph leaves empty.
type Sniffer struct{}

// NewSniffer creates a new Sniffer.
func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// Sniff parses html and returns its metadata. Missing fields are empty.
func (s *Sniffer) Sniff(html string) (*distill.PageMeta, error) {
	if strings.TrimSpace(html) == "" {
		return &distill.PageMeta{}, nil
	}

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err != nil {
		return nil, distill.Errorf(distill.EINVALID, "failed to parse OpenGraph: %v", err)
	}

	meta := &distill.PageMeta{
		Title:       clean(og.Title),
		Description: clean(og.Description),
		SiteName:    clean(og.SiteName),
	}
	if meta.Title != "" && meta.Description != "" && meta.SiteName != "" {
		return meta, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta, nil
	}
	if meta.Title == "" {
		meta.Title = clean(doc.Find("title").First().Text())
	}
	if meta.Description == "" {
		meta.Description = metaContent(doc, "meta[name='description']", "meta[name='twitter:description']")
	}
	if meta.SiteName == "" {
		meta.SiteName = metaContent(doc, "meta[name='application-name']", "meta[name='apple-mobile-web-app-title']")
	}
	return meta, nil
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = clean(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
