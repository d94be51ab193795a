package distill

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML fetched from pageURL into Markdown. Relative
	// links are resolved against pageURL when it is non-empty.
	// Returns EINVALID for blank input.
	Convert(html string, pageURL string) (string, error)
}
