package extractors

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure the item types implement the interfaces.
var (
	_ driven.Item  = (*TextItem)(nil)
	_ driven.Table = (*TableItem)(nil)
)

// TextItem is a block of prose.
type TextItem struct {
	Body string
	Meta map[string]any
}

// NewTextItem creates a text item.
func NewTextItem(body string, meta map[string]any) *TextItem {
	return &TextItem{Body: body, Meta: meta}
}

// Text returns the body and whether it holds anything besides whitespace.
func (i *TextItem) Text() (string, bool) {
	return i.Body, strings.TrimSpace(i.Body) != ""
}

// Fields returns the item metadata.
func (i *TextItem) Fields() map[string]any {
	return i.Meta
}

// TableItem is a table made of rows of cells. The first row is the header.
type TableItem struct {
	Rows  [][]string
	Plain string
	Meta  map[string]any
}

// NewTableItem creates a table item. plain is the table's text as found
// in the document and is used when the rows cannot be rendered.
func NewTableItem(rows [][]string, plain string, meta map[string]any) *TableItem {
	return &TableItem{Rows: rows, Plain: plain, Meta: meta}
}

// Text returns the plain table text, or the cells joined by tabs.
func (t *TableItem) Text() (string, bool) {
	text := t.Plain
	if strings.TrimSpace(text) == "" {
		lines := make([]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		text = strings.Join(lines, "\n")
	}
	return text, strings.TrimSpace(text) != ""
}

// Fields returns the item metadata.
func (t *TableItem) Fields() map[string]any {
	return t.Meta
}

// Markdown renders the rows as a pipe table.
func (t *TableItem) Markdown() (string, error) {
	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	if len(t.Rows) == 0 || width == 0 {
		return "", fmt.Errorf("%w: table has no cells", domain.ErrExtraction)
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(t.Rows[0])
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// SourceFields returns the metadata every partitioner item starts from.
func SourceFields(raw *domain.RawDocument) map[string]any {
	return map[string]any{domain.MetaSource: raw.Source.Ref}
}

// TableFields returns the metadata for a table item.
func TableFields(raw *domain.RawDocument) map[string]any {
	return map[string]any{domain.MetaSource: raw.Source.Ref, domain.MetaIsTable: true}
}

// DecodeText returns the content as UTF-8, replacing invalid sequences.
func DecodeText(content []byte) string {
	return strings.ToValidUTF8(string(content), "�")
}

// IsLocal reports whether the source is addressed as a file, not a page.
func IsLocal(src domain.Source) bool {
	switch src.Kind {
	case domain.SourceKindFile, domain.SourceKindS3, domain.SourceKindGitHubFile:
		return true
	default:
		return false
	}
}

// HasFormat reports whether a local source has one of the extensions, or
// the raw document carries the MIME type.
func HasFormat(src domain.Source, raw *domain.RawDocument, mime string, exts ...string) bool {
	if !IsLocal(src) {
		return false
	}
	ext := src.Extension()
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return raw != nil && MediaType(raw.MIMEType) == mime
}

// MediaType strips parameters from a content type.
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
