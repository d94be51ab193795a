package extract

import (
	"context"
	"time"

	"github.com/fwojciec/distill"
)

// Stage names, reported in meta.provider and meta.stages.
const (
	StageStatic   = "static"
	StageRendered = "rendered"
	StageReader   = "reader"
)

// Candidate is the text one stage recovered for a URL.
type Candidate struct {
	Title    string
	Byline   string
	Excerpt  string
	SiteName string
	Text     string
}

// Stage is one step of the URL escalation chain.
type Stage interface {
	// Name identifies the stage in results and logs.
	Name() string

	// Gate decides whether the stage's text ends escalation.
	Gate() distill.QualityGate

	// Run produces a candidate for url. Errors are never fatal to the chain.
	// A failed run may still return a candidate carrying page metadata.
	Run(ctx context.Context, url string) (*Candidate, error)
}

// pageStage turns fetched HTML into a candidate. It is shared by the static
// and rendered stages, which differ only in how the HTML is obtained.
type pageStage struct {
	Fetcher   distill.Fetcher
	Extractor distill.Extractor
	Texter    distill.Texter
	Sniffer   distill.Sniffer
	Timeout   time.Duration
	MinLength int
}

func (s *pageStage) run(ctx context.Context, url string) (*Candidate, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	html, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c := &Candidate{}
	article, err := s.Extractor.Extract(html, url)
	if err == nil {
		c.Title = article.Title
		c.Byline = article.Byline
		c.Excerpt = article.Excerpt
		c.SiteName = article.SiteName
		c.Text = article.Text

		// Prefer a structured rendering of the content HTML; readability's own
		// text flattens paragraphs together.
		if s.Texter != nil && article.ContentHTML != "" {
			if text, terr := s.Texter.Text(article.ContentHTML); terr == nil && text != "" {
				c.Text = text
			}
		}
	}

	// Page metadata is sniffed even when extraction fails, so a JS shell
	// still lends its site name to a later stage.
	if s.Sniffer != nil && (c.SiteName == "" || c.Title == "") {
		if meta, serr := s.Sniffer.Sniff(html); serr == nil {
			if c.SiteName == "" {
				c.SiteName = meta.SiteName
			}
			if c.Title == "" {
				c.Title = meta.Title
			}
			if c.Excerpt == "" {
				c.Excerpt = meta.Description
			}
		}
	}
	return c, err
}

// StaticStage fetches HTML over plain HTTP and extracts the main content.
type StaticStage pageStage

// Ensure stages implement Stage at compile time.
var (
	_ Stage = (*StaticStage)(nil)
	_ Stage = (*RenderedStage)(nil)
	_ Stage = (*ReaderStage)(nil)
)

// Name returns "static".
func (s *StaticStage) Name() string { return StageStatic }

// Gate returns the page-fetch quality gate.
func (s *StaticStage) Gate() distill.QualityGate {
	return distill.QualityGate{MinLength: s.MinLength}
}

// Run fetches and extracts url.
func (s *StaticStage) Run(ctx context.Context, url string) (*Candidate, error) {
	return (*pageStage)(s).run(ctx, url)
}

// RenderedStage fetches HTML through a JavaScript-rendering browser and
// extracts the main content.
type RenderedStage pageStage

// Name returns "rendered".
func (s *RenderedStage) Name() string { return StageRendered }

// Gate returns the page-fetch quality gate.
func (s *RenderedStage) Gate() distill.QualityGate {
	return distill.QualityGate{MinLength: s.MinLength}
}

// Run renders and extracts url.
func (s *RenderedStage) Run(ctx context.Context, url string) (*Candidate, error) {
	return (*pageStage)(s).run(ctx, url)
}

// ReaderStage asks a text-extraction proxy for the page.
type ReaderStage struct {
	Reader    distill.Reader
	Timeout   time.Duration
	MinLength int
}

// Name returns "reader".
func (s *ReaderStage) Name() string { return StageReader }

// Gate returns the reader quality gate, which is more lenient than the
// page-fetch one.
func (s *ReaderStage) Gate() distill.QualityGate {
	min := s.MinLength
	if min <= 0 {
		min = distill.ReaderMinQualityLength
	}
	return distill.QualityGate{MinLength: min}
}

// Run reads url through the proxy.
func (s *ReaderStage) Run(ctx context.Context, url string) (*Candidate, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	article, err := s.Reader.Read(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Candidate{Title: article.Title, Text: article.Text}, nil
}
