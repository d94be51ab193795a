package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "simple path",
			url:  "https://example.com/news/story",
			want: "example.com/news/story.md",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/news/",
			want: "example.com/news/index.md",
		},
		{
			name: "root path becomes index",
			url:  "https://Example.com",
			want: "example.com/index.md",
		},
		{
			name: "drops page extensions",
			url:  "https://example.com/2026/10/story.html",
			want: "example.com/2026/10/story.md",
		},
		{
			name: "keeps other dots",
			url:  "https://example.com/releases/v1.2",
			want: "example.com/releases/v1.2.md",
		},
		{
			name: "ignores query string and fragment",
			url:  "https://example.com/a?x=1#top",
			want: "example.com/a.md",
		},
		{
			name: "cannot escape the host directory",
			url:  "https://example.com/../../etc/passwd",
			want: "example.com/etc/passwd.md",
		},
		{
			name:    "requires a host",
			url:     "/relative/path",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newResult() *distill.Result {
	r := distill.NewResult("First paragraph.\n\nSecond paragraph.")
	r.Title = "Story: A Subtitle"
	r.SiteName = "Example News"
	r.Meta[distill.MetaSourceURL] = "https://example.com/news/story"
	r.Meta[distill.MetaProvider] = "static"
	r.Meta[distill.MetaContentHash] = "abc123"
	return r
}

func TestFormatResult(t *testing.T) {
	t.Parallel()

	got, err := fs.FormatResult(newResult(), time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	header, body, ok := strings.Cut(strings.TrimPrefix(got, "---\n"), "---\n\n")
	require.True(t, ok, "missing frontmatter delimiters")

	var fm map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(header), &fm))
	assert.Equal(t, map[string]string{
		"source":    "https://example.com/news/story",
		"title":     "Story: A Subtitle",
		"site":      "Example News",
		"provider":  "static",
		"hash":      "abc123",
		"extracted": "2026-10-16",
	}, fm)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.\n", body)
}

func TestWriter_WriteResult(t *testing.T) {
	t.Parallel()

	t.Run("writes result below the host directory", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		w := fs.NewWriter(baseDir)

		path, err := w.WriteResult(context.Background(), newResult())

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(baseDir, "example.com/news/story.md"), path)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "source: https://example.com/news/story\n")
		assert.Contains(t, string(content), "\n---\n\nFirst paragraph.")
	})

	t.Run("leaves no temporary files behind", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		_, err := fs.NewWriter(baseDir).WriteResult(context.Background(), newResult())
		require.NoError(t, err)

		entries, err := os.ReadDir(filepath.Join(baseDir, "example.com/news"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rejects empty result", func(t *testing.T) {
		t.Parallel()

		r := distill.NewResult("  ")
		r.Meta[distill.MetaSourceURL] = "https://example.com/"

		_, err := fs.NewWriter(t.TempDir()).WriteResult(context.Background(), r)

		assert.Equal(t, distill.EINVALID, distill.ErrorCode(err))
	})

	t.Run("rejects result without source URL", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewWriter(t.TempDir()).WriteResult(context.Background(), distill.NewResult("text"))

		require.Error(t, err)
	})
}
