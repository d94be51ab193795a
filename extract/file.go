package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// File providers, reported in meta.provider.
const (
	ProviderPassthrough   = "passthrough"
	ProviderTranscription = "transcription"
	ProviderOCR           = "ocr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileExtractor recovers text from an uploaded file with a single provider
// call chosen by the file's kind. Unlike URL extraction there is no
// fallback: a provider failure ends the request.
type FileExtractor struct {
	Documents    distill.DocumentTranscriber
	Audio        distill.AudioTranscriber
	TokenCounter distill.TokenCounter
	Logger       *slog.Logger
}

// Extract returns the text of f.
func (e *FileExtractor) Extract(ctx context.Context, f *distill.File) (_ *distill.Result, err error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	kind := distill.ClassifyKind(f.Name, f.MIMEType)
	provider := providerFor(kind)
	logger := loggerOrDiscard(e.Logger)
	defer func(begin time.Time) {
		logger.Info("extract file",
			"filename", f.Name,
			"kind", kind,
			"provider", provider,
			"bytes", f.Size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	var tr *distill.Transcript
	switch kind {
	case distill.KindText:
		tr = &distill.Transcript{Text: decodeText(f.Data)}
	case distill.KindAudio:
		if e.Audio == nil {
			return nil, distill.Errorf(distill.ENOTCONFIGURED, "audio transcription is not configured")
		}
		tr, err = e.Audio.TranscribeAudio(ctx, f)
	default:
		if e.Documents == nil {
			return nil, distill.Errorf(distill.ENOTCONFIGURED, "document extraction is not configured")
		}
		tr, err = e.Documents.TranscribeDocument(ctx, f)
	}
	if err != nil {
		return nil, classify(ctx, err)
	}

	r := distill.NewResult(tr.Text)
	if r.Empty() {
		return nil, distill.Errorf(distill.ENOCONTENT, "no text could be extracted from the file")
	}
	r.Title = strings.TrimSpace(tr.Title)
	r.Meta[distill.MetaKind] = string(kind)
	r.Meta[distill.MetaBytes] = f.Size
	r.Meta[distill.MetaProvider] = provider
	r.Meta[distill.MetaFilename] = f.Name
	if tr.Elements > 0 {
		r.Meta[distill.MetaElements] = tr.Elements
	}
	if tr.Duration > 0 {
		r.Meta[distill.MetaDuration] = tr.Duration
	}
	annotate(ctx, r, e.TokenCounter)
	return r, nil
}

func providerFor(kind distill.Kind) string {
	switch kind {
	case distill.KindText:
		return ProviderPassthrough
	case distill.KindAudio:
		return ProviderTranscription
	default:
		return ProviderOCR
	}
}

// decodeText reads data as UTF-8, dropping a byte order mark and replacing
// invalid sequences.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// classify turns a provider failure into an application error. Client
// cancellation is passed through untouched.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if distill.ErrorCode(err) != distill.EINTERNAL {
		return err
	}
	return &distill.Error{Code: distill.EPROVIDER, Message: "file extraction failed", Details: err.Error()}
}
