package mock

import "github.com/fwojciec/distill"

var _ distill.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of distill.Extractor.
type Extractor struct {
	ExtractFn func(html string, pageURL string) (*distill.Article, error)
}

func (e *Extractor) Extract(html string, pageURL string) (*distill.Article, error) {
	return e.ExtractFn(html, pageURL)
}

var _ distill.Texter = (*Texter)(nil)

// Texter is a mock implementation of distill.Texter.
type Texter struct {
	TextFn func(html string) (string, error)
}

func (t *Texter) Text(html string) (string, error) {
	return t.TextFn(html)
}

var _ distill.Sniffer = (*Sniffer)(nil)

// Sniffer is a mock implementation of distill.Sniffer.
type Sniffer struct {
	SniffFn func(html string) (*distill.PageMeta, error)
}

func (s *Sniffer) Sniff(html string) (*distill.PageMeta, error) {
	return s.SniffFn(html)
}

var _ distill.Converter = (*Converter)(nil)

// Converter is a mock implementation of distill.Converter.
type Converter struct {
	ConvertFn func(html string, pageURL string) (string, error)
}

func (c *Converter) Convert(html string, pageURL string) (string, error) {
	return c.ConvertFn(html, pageURL)
}
