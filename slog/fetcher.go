// Package slog provides logging decorators for the provider interfaces.
// Each decorator delegates to the wrapped implementation and logs one line
// per call with its duration and error.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/distill"
)

// Ensure LoggingFetcher implements distill.Fetcher.
var _ distill.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   distill.Fetcher
	name   string
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher. name identifies the
// backend in log lines, e.g. "http" or "rod".
func NewLoggingFetcher(next distill.Fetcher, name string, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, name: name, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"fetcher", f.name,
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingReader implements distill.Reader.
var _ distill.Reader = (*LoggingReader)(nil)

// LoggingReader wraps a Reader with logging.
type LoggingReader struct {
	next   distill.Reader
	logger *slog.Logger
}

// NewLoggingReader creates a new LoggingReader.
func NewLoggingReader(next distill.Reader, logger *slog.Logger) *LoggingReader {
	return &LoggingReader{next: next, logger: logger}
}

// Read delegates to the wrapped reader and logs the operation.
func (r *LoggingReader) Read(ctx context.Context, url string) (a *distill.Article, err error) {
	defer func(begin time.Time) {
		var n int
		if a != nil {
			n = len(a.Text)
		}
		r.logger.Info("read",
			"url", url,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Read(ctx, url)
}
