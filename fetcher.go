package distill

import "context"

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources such as browser processes.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Reader is a text-extraction proxy that returns markdown-ish plain text for
// a URL without rendering guarantees. Only Title and Text of the returned
// Article are populated.
type Reader interface {
	Read(ctx context.Context, url string) (*Article, error)
}
