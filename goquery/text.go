// Package goquery renders extracted HTML as plain text using goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/distill"
	"golang.org/x/net/html"
)

// Ensure Texter implements distill.Texter at compile time.
var _ distill.Texter = (*Texter)(nil)

// Texter converts HTML into plain text, keeping block structure as line
// breaks so that paragraphs survive into the summarization prompt.
type Texter struct{}

// NewTexter creates a new Texter.
func NewTexter() *Texter {
	return &Texter{}
}

// skipped elements never contribute text.
const skipped = "script, style, noscript, template, svg, canvas, iframe, img, picture, video, audio, button, form"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"details": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "summary": true, "table": true, "tbody": true, "thead": true,
	"tfoot": true, "tr": true, "ul": true,
}

// Text renders html as normalized plain text.
func (t *Texter) Text(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", distill.Errorf(distill.EINVALID, "failed to parse HTML: %v", err)
	}
	doc.Find(skipped).Remove()

	w := &textWriter{}
	for _, n := range doc.Nodes {
		w.walk(n, false)
	}
	return distill.NormalizeText(w.String()), nil
}

type textWriter struct {
	strings.Builder
	pendingSpace bool
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, pre)
		return
	case html.ElementNode:
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, pre)
		}
		return
	default:
		return
	}

	switch n.Data {
	case "br":
		w.newline(1)
		return
	case "td", "th":
		w.space()
	case "li":
		w.newline(1)
		w.WriteString("- ")
		w.pendingSpace = false
	}

	block := blockElements[n.Data]
	if block && n.Data != "li" {
		w.newline(2)
	}
	isPre := pre || n.Data == "pre"
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, isPre)
	}
	switch {
	case n.Data == "li":
		w.newline(1)
	case block:
		w.newline(2)
	}
}

func (w *textWriter) text(s string, pre bool) {
	if pre {
		w.WriteString(s)
		return
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			w.pendingSpace = true
		}
		return
	}
	if w.pendingSpace || startsWithSpace(s) {
		w.space()
	}
	w.WriteString(strings.Join(fields, " "))
	w.pendingSpace = endsWithSpace(s)
}

func (w *textWriter) space() {
	w.pendingSpace = false
	if w.Len() == 0 {
		return
	}
	s := w.String()
	if last := s[len(s)-1]; last != ' ' && last != '\n' {
		w.WriteByte(' ')
	}
}

// newline ensures the output ends with at least n newlines.
func (w *textWriter) newline(n int) {
	w.pendingSpace = false
	if w.Len() == 0 {
		return
	}
	s := w.String()
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < n; have++ {
		w.WriteByte('\n')
	}
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s[:1], " \t\n\r\f") == ""
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s[len(s)-1:], " \t\n\r\f") == ""
}
