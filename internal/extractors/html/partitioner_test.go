package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Quarterly report</title><style>p { color: red }</style></head>
<body>
  <script>var tracking = true;</script>
  <h1>Quarterly   report</h1>
  <p>Revenue grew in
     every region.</p>
  <ul>
    <li>North <p>nested paragraph</p></li>
    <li>South</li>
  </ul>
  <table>
    <thead><tr><th>Region</th><th>Revenue</th></tr></thead>
    <tbody>
      <tr><td>North</td><td>10</td></tr>
      <tr><td>South</td><td>7 | 8</td></tr>
    </tbody>
  </table>
  <pre>  line one
  line two</pre>
</body>
</html>`

func rawPage(ref string, kind domain.SourceKind, body string) *domain.RawDocument {
	return &domain.RawDocument{
		Source:   domain.Source{Ref: ref, Kind: kind},
		MIMEType: domain.MIMETypeHTML,
		Content:  []byte(body),
	}
}

func TestPartitioner_Tier(t *testing.T) {
	file := New()
	assert.Equal(t, "html-partitioner", file.Name())
	assert.Equal(t, FilePriority, file.Priority())
	assert.Equal(t, driven.PolicyStructured, file.Policy())

	url := NewForURL()
	assert.Equal(t, "html-partitioner-url", url.Name())
	assert.Equal(t, URLPriority, url.Priority())
}

func TestPartitioner_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		p      *Partitioner
		src    domain.Source
		mime   string
		accept bool
	}{
		{"file html", New(), domain.Source{Ref: "a/b.html", Kind: domain.SourceKindFile}, "", true},
		{"file htm upper", New(), domain.Source{Ref: "B.HTM", Kind: domain.SourceKindFile}, "", true},
		{"s3 html", New(), domain.Source{Ref: "s3://bkt/x.html", Kind: domain.SourceKindS3}, "", true},
		{"file by mime", New(), domain.Source{Ref: "page", Kind: domain.SourceKindFile}, "text/html; charset=utf-8", true},
		{"file pdf", New(), domain.Source{Ref: "a.pdf", Kind: domain.SourceKindFile}, domain.MIMETypePDF, false},
		{"file tier on url", New(), domain.Source{Ref: "https://x.test/a.html", Kind: domain.SourceKindURL}, "", false},
		{"url tier on url", NewForURL(), domain.Source{Ref: "https://x.test/", Kind: domain.SourceKindURL}, "", true},
		{"url tier on file", NewForURL(), domain.Source{Ref: "a.html", Kind: domain.SourceKindFile}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{Source: tt.src, MIMEType: tt.mime}
			assert.Equal(t, tt.accept, tt.p.Accepts(tt.src, raw))
		})
	}
}

func TestPartitioner_Extract(t *testing.T) {
	raw := rawPage("report.html", domain.SourceKindFile, page)

	items, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	var texts []string
	var tables []driven.Table
	for _, item := range items {
		if tbl, ok := item.(driven.Table); ok {
			tables = append(tables, tbl)
			continue
		}
		text, ok := item.Text()
		require.True(t, ok)
		texts = append(texts, text)
		assert.Equal(t, map[string]any{"source": "report.html"}, item.Fields())
	}

	assert.Equal(t, []string{
		"Quarterly report",
		"Revenue grew in every region.",
		"North nested paragraph",
		"South",
		"line one\n  line two",
	}, texts)

	require.Len(t, tables, 1)
	md, err := tables[0].Markdown()
	require.NoError(t, err)
	assert.Equal(t, "| Region | Revenue |\n| --- | --- |\n| North | 10 |\n| South | 7 \\| 8 |", md)
	assert.Equal(t, map[string]any{"source": "report.html", "is_table": true}, tables[0].Fields())
}

func TestPartitioner_TableInsideBlock(t *testing.T) {
	body := `<blockquote>Quoted <table><tr><td>a</td></tr></table></blockquote>`

	items, err := New().Extract(context.Background(), rawPage("q.html", domain.SourceKindFile, body))
	require.NoError(t, err)
	require.Len(t, items, 2)

	text, _ := items[0].Text()
	assert.Equal(t, "Quoted", text)
	assert.Implements(t, (*driven.Table)(nil), items[1])
}

func TestPartitioner_NestedTableKeptInOuter(t *testing.T) {
	body := `<table><tr><td>outer</td><td><table><tr><td>inner</td></tr></table></td></tr></table>`

	items, err := New().Extract(context.Background(), rawPage("n.html", domain.SourceKindFile, body))
	require.NoError(t, err)
	require.Len(t, items, 1)

	md, err := items[0].(driven.Table).Markdown()
	require.NoError(t, err)
	assert.Equal(t, "| outer | inner |\n| --- | --- |", md)
}

func TestPartitioner_BareBodyText(t *testing.T) {
	items, err := New().Extract(context.Background(),
		rawPage("bare.html", domain.SourceKindFile, "<html><body><div>just   text</div></body></html>"))
	require.NoError(t, err)
	require.Len(t, items, 1)

	text, ok := items[0].Text()
	assert.True(t, ok)
	assert.Equal(t, "just text", text)
}

func TestPartitioner_EmptyDocument(t *testing.T) {
	items, err := New().Extract(context.Background(), rawPage("e.html", domain.SourceKindFile, "<html><body> </body></html>"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPartitioner_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
