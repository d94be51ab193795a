package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/distill"
)

var _ distill.DocumentTranscriber = (*LoggingDocumentTranscriber)(nil)

// LoggingDocumentTranscriber wraps a DocumentTranscriber with logging.
type LoggingDocumentTranscriber struct {
	next   distill.DocumentTranscriber
	logger *slog.Logger
}

func NewLoggingDocumentTranscriber(next distill.DocumentTranscriber, logger *slog.Logger) *LoggingDocumentTranscriber {
	return &LoggingDocumentTranscriber{next: next, logger: logger}
}

func (d *LoggingDocumentTranscriber) TranscribeDocument(ctx context.Context, f *distill.File) (t *distill.Transcript, err error) {
	defer func(begin time.Time) {
		logTranscript(d.logger, "transcribe document", f, t, begin, err)
	}(time.Now())
	return d.next.TranscribeDocument(ctx, f)
}

var _ distill.AudioTranscriber = (*LoggingAudioTranscriber)(nil)

// LoggingAudioTranscriber wraps an AudioTranscriber with logging.
type LoggingAudioTranscriber struct {
	next   distill.AudioTranscriber
	logger *slog.Logger
}

func NewLoggingAudioTranscriber(next distill.AudioTranscriber, logger *slog.Logger) *LoggingAudioTranscriber {
	return &LoggingAudioTranscriber{next: next, logger: logger}
}

func (a *LoggingAudioTranscriber) TranscribeAudio(ctx context.Context, f *distill.File) (t *distill.Transcript, err error) {
	defer func(begin time.Time) {
		logTranscript(a.logger, "transcribe audio", f, t, begin, err)
	}(time.Now())
	return a.next.TranscribeAudio(ctx, f)
}

func logTranscript(logger *slog.Logger, msg string, f *distill.File, t *distill.Transcript, begin time.Time, err error) {
	var chars int
	if t != nil {
		chars = len(t.Text)
	}
	logger.Info(msg,
		"filename", f.Name,
		"bytes", f.Size,
		"chars", chars,
		"duration", time.Since(begin),
		"err", err,
	)
}
