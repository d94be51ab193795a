package mock

import (
	"context"

	"github.com/fwojciec/distill"
)

var _ distill.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of distill.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ distill.Reader = (*Reader)(nil)

// Reader is a mock implementation of distill.Reader.
type Reader struct {
	ReadFn func(ctx context.Context, url string) (*distill.Article, error)
}

func (r *Reader) Read(ctx context.Context, url string) (*distill.Article, error) {
	return r.ReadFn(ctx, url)
}
