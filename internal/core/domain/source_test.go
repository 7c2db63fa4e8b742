package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	tests := []struct {
		name    string
		ref     string
		want    SourceKind
		wantErr bool
	}{
		{"http url", "http://example.com/a", SourceKindURL, false},
		{"https url upper", "HTTPS://example.com", SourceKindURL, false},
		{"s3 object", "s3://bucket/path/to/doc.pdf", SourceKindS3, false},
		{"s3 without key", "s3://bucket", "", true},
		{"github repo", "github://acme/docs", SourceKindGitHub, false},
		{"github subtree", "GitHub://acme/docs/guides?ref=v2", SourceKindGitHub, false},
		{"github without repo", "github://acme", "", true},
		{"directory", dir, SourceKindDirectory, false},
		{"existing file", file, SourceKindFile, false},
		{"missing file", filepath.Join(dir, "missing.pdf"), SourceKindFile, false},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Kind)
		})
	}
}

func TestSource_Extension(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Source{Ref: "/tmp/report.PDF", Kind: SourceKindFile}, ".pdf"},
		{Source{Ref: "page.html", Kind: SourceKindFile}, ".html"},
		{Source{Ref: "/tmp/.hidden", Kind: SourceKindFile}, ""},
		{Source{Ref: "/tmp/dir.d/README", Kind: SourceKindFile}, ""},
		{Source{Ref: "https://x.io/a/b.htm?q=1#top", Kind: SourceKindURL}, ".htm"},
		{Source{Ref: "https://x.io/", Kind: SourceKindURL}, ""},
		{Source{Ref: "s3://b/k/file.md", Kind: SourceKindS3}, ".md"},
		{Source{Ref: "github://o/r/docs/intro.md?ref=main", Kind: SourceKindGitHubFile}, ".md"},
	}

	for _, tt := range tests {
		t.Run(tt.src.Ref, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.src.Extension())
		})
	}
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, ok := SplitS3URI("s3://docs/2024/a.pdf")
	assert.True(t, ok)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "2024/a.pdf", key)

	_, _, ok = SplitS3URI("s3:///key")
	assert.False(t, ok)
	_, _, ok = SplitS3URI("gs://bucket/key")
	assert.False(t, ok)
}

func TestMIMETypeForExtension(t *testing.T) {
	assert.Equal(t, MIMETypePDF, MIMETypeForExtension(".pdf"))
	assert.Equal(t, MIMETypeHTML, MIMETypeForExtension(".htm"))
	assert.Equal(t, MIMETypeMarkdown, MIMETypeForExtension(".md"))
	assert.Equal(t, "", MIMETypeForExtension(".bin"))
}
