package distill

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest upload accepted by the file pipeline (20 MiB).
const MaxFileSize = 20 << 20

// File is an uploaded file awaiting extraction.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// Validate returns an error if the file cannot be processed.
func (f *File) Validate() error {
	if f == nil || (f.Size == 0 && len(f.Data) == 0) {
		return Errorf(EINVALID, "file required")
	}
	if f.Size > MaxFileSize || int64(len(f.Data)) > MaxFileSize {
		return Errorf(ETOOLARGE, "file exceeds the %d MiB limit", MaxFileSize>>20)
	}
	return nil
}

// Kind is the coarse category of an uploaded file.
type Kind string

// Supported file kinds.
const (
	KindAudio   Kind = "audio"
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindImage   Kind = "image"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

var (
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".oga": true, ".flac": true, ".aac": true, ".opus": true, ".webm": true}
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".tif": true, ".tiff": true, ".bmp": true, ".heic": true}
	textExts  = map[string]bool{".txt": true, ".md": true, ".markdown": true, ".csv": true}
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ClassifyKind inspects the file name extension and declared MIME type and
// returns the file kind. Checks run in priority order: audio, pdf, docx,
// image, text.
func ClassifyKind(name, mimeType string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	mt := strings.ToLower(mimeType)
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}

	switch {
	case strings.HasPrefix(mt, "audio/") || audioExts[ext]:
		return KindAudio
	case mt == "application/pdf" || ext == ".pdf":
		return KindPDF
	case mt == docxMIME || mt == "application/msword" || ext == ".docx":
		return KindDOCX
	case strings.HasPrefix(mt, "image/") || imageExts[ext]:
		return KindImage
	case strings.HasPrefix(mt, "text/") || textExts[ext]:
		return KindText
	default:
		return KindUnknown
	}
}

// Transcript is the text recovered from a file by a hosted provider.
type Transcript struct {
	Text  string
	Title string

	// Elements is the number of document elements merged into Text.
	Elements int

	// Duration is the audio length in seconds, zero when unknown.
	Duration float64
}

// DocumentTranscriber recovers text from documents and images.
type DocumentTranscriber interface {
	// TranscribeDocument uploads the file to an OCR/document service.
	// Returns ENOTCONFIGURED if no credential is configured and EPROVIDER
	// if the upstream call fails.
	TranscribeDocument(ctx context.Context, f *File) (*Transcript, error)
}

// AudioTranscriber recovers a transcript from audio.
type AudioTranscriber interface {
	// TranscribeAudio sends the audio to a speech-to-text service.
	// Returns ENOTCONFIGURED if no credential is configured and EPROVIDER
	// if the upstream call fails.
	TranscribeAudio(ctx context.Context, f *File) (*Transcript, error)
}
