package mock

import (
	"context"

	"github.com/fwojciec/distill"
)

var _ distill.DocumentTranscriber = (*DocumentTranscriber)(nil)

// DocumentTranscriber is a mock implementation of distill.DocumentTranscriber.
type DocumentTranscriber struct {
	TranscribeDocumentFn func(ctx context.Context, f *distill.File) (*distill.Transcript, error)
}

func (t *DocumentTranscriber) TranscribeDocument(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
	return t.TranscribeDocumentFn(ctx, f)
}

var _ distill.AudioTranscriber = (*AudioTranscriber)(nil)

// AudioTranscriber is a mock implementation of distill.AudioTranscriber.
type AudioTranscriber struct {
	TranscribeAudioFn func(ctx context.Context, f *distill.File) (*distill.Transcript, error)
}

func (t *AudioTranscriber) TranscribeAudio(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
	return t.TranscribeAudioFn(ctx, f)
}
