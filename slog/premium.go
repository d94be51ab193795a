package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/distill"
)

var _ distill.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with logging.
type LoggingScraper struct {
	next   distill.Scraper
	logger *slog.Logger
}

func NewLoggingScraper(next distill.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

func (s *LoggingScraper) Scrape(ctx context.Context, url string) (sc *distill.Scrape, err error) {
	defer func(begin time.Time) {
		var n int
		if sc != nil {
			n = len(sc.Markdown) + len(sc.HTML)
		}
		s.logger.Info("scrape",
			"url", url,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Scrape(ctx, url)
}
