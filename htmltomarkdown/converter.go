// Package htmltomarkdown renders article HTML as Markdown.
package htmltomarkdown

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/distill"
)

// Ensure Converter implements distill.Converter at compile time.
var _ distill.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown. Media and page chrome are dropped since
// the output is meant to be read, not displayed.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	for _, tag := range []string{"img", "picture", "svg", "video", "audio", "iframe", "nav", "form"} {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", distill.Errorf(distill.EINVALID, "empty HTML input")
	}

	var md string
	var err error
	if u, perr := url.Parse(pageURL); perr == nil && u.Host != "" {
		md, err = c.conv.ConvertString(html, converter.WithDomain(u.Scheme+"://"+u.Host))
	} else {
		md, err = c.conv.ConvertString(html)
	}
	if err != nil {
		return "", distill.Errorf(distill.EINVALID, "failed to convert HTML: %v", err)
	}
	return strings.TrimSpace(md), nil
}
