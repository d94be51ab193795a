// Package fs writes extraction results to disk as markdown files.
package fs

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/distill"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a page URL to a relative file path rooted at its host.
// Example: https://example.com/news/story → example.com/news/story.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", distill.Errorf(distill.EINVALID, "URL has no host: %s", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	p := strings.Trim(path.Clean("/"+u.Path), "/")

	switch {
	case p == "":
		return host + "/index.md", nil
	case strings.HasSuffix(u.Path, "/"):
		return host + "/" + p + "/index.md", nil
	}
	if pageExt[path.Ext(p)] {
		p = strings.TrimSuffix(p, path.Ext(p))
	}
	return host + "/" + p + ".md", nil
}

var pageExt = map[string]bool{".html": true, ".htm": true, ".php": true, ".asp": true, ".aspx": true}

// frontmatter is the YAML header written above the text.
type frontmatter struct {
	Source      string `yaml:"source"`
	Title       string `yaml:"title,omitempty"`
	Byline      string `yaml:"byline,omitempty"`
	SiteName    string `yaml:"site,omitempty"`
	Provider    string `yaml:"provider,omitempty"`
	ContentHash string `yaml:"hash,omitempty"`
	Extracted   string `yaml:"extracted"`
}

// FormatResult renders r as markdown with YAML frontmatter.
func FormatResult(r *distill.Result, extracted time.Time) (string, error) {
	fm := frontmatter{
		Source:    metaString(r, distill.MetaSourceURL),
		Title:     r.Title,
		Byline:    r.Byline,
		SiteName:  r.SiteName,
		Provider:  metaString(r, distill.MetaProvider),
		Extracted: extracted.UTC().Format("2006-01-02"),
	}
	fm.ContentHash = metaString(r, distill.MetaContentHash)

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	buf.WriteString("---\n\n")
	buf.WriteString(r.Text)
	buf.WriteString("\n")
	return buf.String(), nil
}

func metaString(r *distill.Result, key string) string {
	s, _ := r.Meta[key].(string)
	return s
}

// Ensure Writer implements distill.ResultWriter at compile time.
var _ distill.ResultWriter = (*Writer)(nil)

// Writer writes results as markdown files below a base directory.
type Writer struct {
	baseDir string
	now     func() time.Time
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

// WriteResult writes r to disk and returns the file path. The file is
// written to a temporary name first and renamed into place so that readers
// never observe a partial file.
func (w *Writer) WriteResult(ctx context.Context, r *distill.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.Empty() {
		return "", distill.Errorf(distill.EINVALID, "result has no text")
	}

	relPath, err := URLToPath(metaString(r, distill.MetaSourceURL))
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(w.baseDir, relPath)

	content, err := FormatResult(r, w.now())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".distill-*.md")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}
