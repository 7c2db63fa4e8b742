package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

const doc = `Preamble line.

# Install

Run the *installer* and
follow the prompts.

- first step
- second step

| Flag | Meaning |
|------|---------|
| -v   | verbose |
| -q   | quiet   |

## Usage

` + "```sh\nsercha-ingest ingest ./docs\n```" + `

---

See <https://example.test>.
`

func rawMarkdown(body string) *domain.RawDocument {
	return &domain.RawDocument{
		Source:  domain.Source{Ref: "README.md", Kind: domain.SourceKindFile},
		Content: []byte(body),
	}
}

func TestPartitioner_Tier(t *testing.T) {
	p := New()
	assert.Equal(t, "markdown-partitioner", p.Name())
	assert.Equal(t, 80, p.Priority())
	assert.Equal(t, driven.PolicyStructured, p.Policy())

	md := domain.Source{Ref: "notes.MD", Kind: domain.SourceKindFile}
	assert.True(t, p.Accepts(md, &domain.RawDocument{Source: md}))

	txt := domain.Source{Ref: "notes.txt", Kind: domain.SourceKindFile}
	assert.False(t, p.Accepts(txt, &domain.RawDocument{Source: txt, MIMEType: domain.MIMETypePlain}))
	assert.True(t, p.Accepts(txt, &domain.RawDocument{Source: txt, MIMEType: domain.MIMETypeMarkdown}))
}

func TestPartitioner_Extract(t *testing.T) {
	items, err := New().Extract(context.Background(), rawMarkdown(doc))
	require.NoError(t, err)
	require.Len(t, items, 4)

	text, ok := items[0].Text()
	require.True(t, ok)
	assert.Equal(t, "Preamble line.", text)
	assert.Equal(t, map[string]any{"source": "README.md"}, items[0].Fields())

	text, _ = items[1].Text()
	assert.Equal(t, "Install\n\nRun the installer and follow the prompts.\n\nfirst step\nsecond step", text)
	assert.Equal(t, "Install", items[1].Fields()["section"])

	tbl, ok := items[2].(driven.Table)
	require.True(t, ok)
	md, err := tbl.Markdown()
	require.NoError(t, err)
	assert.Equal(t, "| Flag | Meaning |\n| --- | --- |\n| -v | verbose |\n| -q | quiet |", md)
	assert.Equal(t, true, tbl.Fields()["is_table"])

	text, _ = items[3].Text()
	assert.Equal(t, "Usage\n\nsercha-ingest ingest ./docs\n\nSee https://example.test.", text)
	assert.Equal(t, "Usage", items[3].Fields()["section"])
}

func TestPartitioner_LongHeadingTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}

	items, err := New().Extract(context.Background(), rawMarkdown("# "+long+"\n\nbody"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Len(t, []rune(items[0].Fields()["section"].(string)), domain.SectionMaxChars)
}

func TestPartitioner_Empty(t *testing.T) {
	items, err := New().Extract(context.Background(), rawMarkdown("\n\n---\n"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPartitioner_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
