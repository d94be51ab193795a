package mock

import (
	"context"

	"github.com/fwojciec/distill"
)

var _ distill.URLExtractor = (*URLExtractor)(nil)

// URLExtractor is a mock implementation of distill.URLExtractor.
type URLExtractor struct {
	ExtractFn func(ctx context.Context, url string) (*distill.Result, error)
}

func (e *URLExtractor) Extract(ctx context.Context, url string) (*distill.Result, error) {
	return e.ExtractFn(ctx, url)
}

var _ distill.FileExtractor = (*FileExtractor)(nil)

// FileExtractor is a mock implementation of distill.FileExtractor.
type FileExtractor struct {
	ExtractFn func(ctx context.Context, f *distill.File) (*distill.Result, error)
}

func (e *FileExtractor) Extract(ctx context.Context, f *distill.File) (*distill.Result, error) {
	return e.ExtractFn(ctx, f)
}

var _ distill.PremiumExtractor = (*PremiumExtractor)(nil)

// PremiumExtractor is a mock implementation of distill.PremiumExtractor.
type PremiumExtractor struct {
	ExtractFn func(ctx context.Context, token, url string) (*distill.PremiumResult, error)
}

func (e *PremiumExtractor) Extract(ctx context.Context, token, url string) (*distill.PremiumResult, error) {
	return e.ExtractFn(ctx, token, url)
}

var _ distill.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of distill.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return c.CountTokensFn(ctx, text)
}
