package distill

// Article holds the main content extracted from an HTML page.
type Article struct {
	// Title is the page title extracted from metadata.
	Title string

	// Byline is the author line, if any.
	Byline string

	// Excerpt is a short description or the first paragraph.
	Excerpt string

	// SiteName is the publisher name, e.g. from og:site_name.
	SiteName string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string

	// Text is the plain-text rendition of the main content.
	Text string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML fetched from pageURL and returns the main
	// content. pageURL is used to resolve relative links and may be empty.
	Extract(html string, pageURL string) (*Article, error)
}

// Texter renders HTML as plain text with paragraph breaks preserved.
type Texter interface {
	Text(html string) (string, error)
}

// PageMeta is document-level metadata sniffed from a page's head.
type PageMeta struct {
	Title       string
	Description string
	SiteName    string
}

// Sniffer reads page metadata such as OpenGraph tags.
type Sniffer interface {
	Sniff(html string) (*PageMeta, error)
}
