package mock

import (
	"context"

	"github.com/fwojciec/distill"
)

var _ distill.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of distill.ResultWriter.
type ResultWriter struct {
	WriteResultFn func(ctx context.Context, r *distill.Result) (string, error)
}

func (w *ResultWriter) WriteResult(ctx context.Context, r *distill.Result) (string, error) {
	return w.WriteResultFn(ctx, r)
}
