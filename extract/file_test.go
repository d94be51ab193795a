package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/extract"
	"github.com/fwojciec/distill/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFile(name, mime string, data []byte) *distill.File {
	return &distill.File{Name: name, MIMEType: mime, Size: int64(len(data)), Data: data}
}

// fileExtractor returns an extractor whose providers fail the test when
// called unless overridden.
func fileExtractor(t *testing.T) *extract.FileExtractor {
	t.Helper()
	return &extract.FileExtractor{
		Documents: &mock.DocumentTranscriber{
			TranscribeDocumentFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				t.Error("document provider must not be called")
				return nil, errors.New("unexpected")
			},
		},
		Audio: &mock.AudioTranscriber{
			TranscribeAudioFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				t.Error("audio provider must not be called")
				return nil, errors.New("unexpected")
			},
		},
	}
}

func TestFileExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("rejects oversized files without calling a provider", func(t *testing.T) {
		t.Parallel()

		f := &distill.File{Name: "big.pdf", MIMEType: "application/pdf", Size: distill.MaxFileSize + 1}

		_, err := fileExtractor(t).Extract(context.Background(), f)

		assert.Equal(t, distill.ETOOLARGE, distill.ErrorCode(err))
	})

	t.Run("routes audio to the transcriber only", func(t *testing.T) {
		t.Parallel()

		x := fileExtractor(t)
		var calls int
		x.Audio = &mock.AudioTranscriber{
			TranscribeAudioFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				calls++
				return &distill.Transcript{Text: "Welcome to the show. Notes at https://example.com/ep1.", Duration: 61.5}, nil
			},
		}

		r, err := x.Extract(context.Background(), newFile("episode.mp3", "", []byte("ID3")))

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "audio", r.Meta[distill.MetaKind])
		assert.Equal(t, extract.ProviderTranscription, r.Meta[distill.MetaProvider])
		assert.Equal(t, 61.5, r.Meta[distill.MetaDuration])
		assert.Equal(t, []string{"https://example.com/ep1"}, r.Meta[distill.MetaLinks])
		assert.Equal(t, "episode.mp3", r.Meta[distill.MetaFilename])
		assert.Equal(t, int64(3), r.Meta[distill.MetaBytes])
	})

	t.Run("routes documents to OCR", func(t *testing.T) {
		t.Parallel()

		x := fileExtractor(t)
		x.Documents = &mock.DocumentTranscriber{
			TranscribeDocumentFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				return &distill.Transcript{Title: "Report", Text: "Report\n\nBody.", Elements: 2}, nil
			},
		}

		for _, f := range []*distill.File{
			newFile("report.pdf", "application/pdf", []byte("%PDF")),
			newFile("scan.png", "image/png", []byte{0x89}),
			newFile("letter.docx", "", []byte("PK")),
			newFile("mystery.bin", "application/octet-stream", []byte{0}),
		} {
			r, err := x.Extract(context.Background(), f)

			require.NoError(t, err, f.Name)
			assert.Equal(t, "Report", r.Title)
			assert.Equal(t, extract.ProviderOCR, r.Meta[distill.MetaProvider])
			assert.Equal(t, 2, r.Meta[distill.MetaElements])
		}
	})

	t.Run("passes text files through", func(t *testing.T) {
		t.Parallel()

		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("# Notes\r\n\r\n\r\n\r\nBody \xff end")...)

		r, err := fileExtractor(t).Extract(context.Background(), newFile("notes.md", "", data))

		require.NoError(t, err)
		assert.Equal(t, "# Notes\n\nBody \uFFFD end", r.Text)
		assert.Equal(t, extract.ProviderPassthrough, r.Meta[distill.MetaProvider])
		assert.Equal(t, "text", r.Meta[distill.MetaKind])
		assert.NotEmpty(t, r.Meta[distill.MetaContentHash])
	})

	t.Run("reports blank output as no content", func(t *testing.T) {
		t.Parallel()

		x := fileExtractor(t)
		x.Documents = &mock.DocumentTranscriber{
			TranscribeDocumentFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				return &distill.Transcript{Text: " \n "}, nil
			},
		}

		_, err := x.Extract(context.Background(), newFile("blank.pdf", "application/pdf", []byte("%PDF")))

		assert.Equal(t, distill.ENOCONTENT, distill.ErrorCode(err))
	})

	t.Run("surfaces provider failure with upstream status", func(t *testing.T) {
		t.Parallel()

		x := fileExtractor(t)
		x.Documents = &mock.DocumentTranscriber{
			TranscribeDocumentFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				return nil, distill.ProviderErrorf(503, "document service returned HTTP 503")
			},
		}

		_, err := x.Extract(context.Background(), newFile("r.pdf", "application/pdf", []byte("%PDF")))

		assert.Equal(t, distill.EPROVIDER, distill.ErrorCode(err))
		assert.Equal(t, 503, distill.ErrorStatus(err))
	})

	t.Run("classifies raw provider errors", func(t *testing.T) {
		t.Parallel()

		x := fileExtractor(t)
		x.Audio = &mock.AudioTranscriber{
			TranscribeAudioFn: func(ctx context.Context, f *distill.File) (*distill.Transcript, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
		}

		_, err := x.Extract(context.Background(), newFile("a.wav", "audio/wav", []byte("RIFF")))

		assert.Equal(t, distill.EPROVIDER, distill.ErrorCode(err))
		assert.NotContains(t, distill.ErrorMessage(err), "refused")
	})

	t.Run("reports missing provider as not configured", func(t *testing.T) {
		t.Parallel()

		x := &extract.FileExtractor{}

		_, err := x.Extract(context.Background(), newFile("a.mp3", "audio/mpeg", []byte("ID3")))

		assert.Equal(t, distill.ENOTCONFIGURED, distill.ErrorCode(err))
	})

	t.Run("rejects empty files", func(t *testing.T) {
		t.Parallel()

		_, err := fileExtractor(t).Extract(context.Background(), newFile("a.txt", "text/plain", nil))

		assert.Equal(t, distill.EINVALID, distill.ErrorCode(err))
	})
}
