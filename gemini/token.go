// Package gemini counts prompt tokens with the Gemini local tokenizer.
package gemini

import (
	"context"
	"sync"

	"github.com/fwojciec/distill"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultModel is the model whose vocabulary is used for token counts.
const DefaultModel = "gemini-2.0-flash"

var _ distill.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens offline so results can report how much of a
// summarization prompt the text will consume.
type TokenCounter struct {
	mu  sync.Mutex
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "loading tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}
