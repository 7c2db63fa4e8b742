package htmltext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestExtractor_Tier(t *testing.T) {
	e := New()
	assert.Equal(t, "html-text", e.Name())
	assert.Equal(t, 60, e.Priority())
	assert.Equal(t, driven.PolicyParagraph, e.Policy())

	file := domain.Source{Ref: "x.htm", Kind: domain.SourceKindFile}
	assert.True(t, e.Accepts(file, &domain.RawDocument{Source: file}))

	url := domain.Source{Ref: "https://x.test/a.html", Kind: domain.SourceKindURL}
	assert.False(t, e.Accepts(url, &domain.RawDocument{Source: url}))
}

func TestExtractor_Extract(t *testing.T) {
	raw := &domain.RawDocument{
		Source: domain.Source{Ref: "doc.html", Kind: domain.SourceKindFile},
		Content: []byte(`<html><body>
			<p>First paragraph with a <a href="https://x.test">link</a>.</p>
			<p>Second paragraph.</p>
		</body></html>`),
	}

	items, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 1)

	text, ok := items[0].Text()
	require.True(t, ok)
	assert.Contains(t, text, "First paragraph with a link.")
	assert.Contains(t, text, "Second paragraph.")
	assert.False(t, strings.Contains(text, "https://x.test"), "links are omitted")
	assert.Equal(t, map[string]any{"source": "doc.html"}, items[0].Fields())
}

func TestExtractor_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
