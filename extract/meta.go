// Package extract turns URLs and uploaded files into clean plain text.
//
// URLs go through an ordered chain of stages, each more expensive than the
// last, until one produces text that passes its quality gate. Files take a
// single provider call chosen by their kind.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/distill"
)

// ComputeHash returns the hex xxhash of content.
func ComputeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// annotate adds the meta entries shared by every pipeline: harvested links,
// content hash and, when a counter is configured, the token count.
func annotate(ctx context.Context, r *distill.Result, tc distill.TokenCounter) {
	if links := distill.HarvestLinks(r.Text); len(links) > 0 {
		r.Meta[distill.MetaLinks] = links
	}
	r.Meta[distill.MetaContentHash] = ComputeHash(r.Text)
	if tc != nil {
		if tokens, err := tc.CountTokens(ctx, r.Text); err == nil {
			r.Meta[distill.MetaTokens] = tokens
		}
	}
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
