// Package markdown provides the markdown partitioner tier. Documents are
// split into heading sections; GFM tables become table items.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Partitioner implements the interface.
var _ driven.Extractor = (*Partitioner)(nil)

// Priority ranks the partitioner first for local markdown files.
const Priority = 80

// Partitioner splits markdown documents into sections and tables.
type Partitioner struct {
	md goldmark.Markdown
}

// New creates a markdown partitioner with GFM tables enabled.
func New() *Partitioner {
	return &Partitioner{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

// Name returns the tier name.
func (p *Partitioner) Name() string {
	return "markdown-partitioner"
}

// Priority returns the selection priority.
func (p *Partitioner) Priority() int {
	return Priority
}

// Accepts reports whether the source is a local markdown file.
func (p *Partitioner) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypeMarkdown, ".md", ".markdown")
}

// Policy returns the segmentation policy for section items.
func (p *Partitioner) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract walks the top-level blocks in document order.
func (p *Partitioner) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src := []byte(extractors.DecodeText(raw.Content))
	doc := p.md.Parser().Parse(text.NewReader(src))

	var (
		items   []driven.Item
		section string
		blocks  []string
	)
	flush := func() {
		body := strings.TrimSpace(strings.Join(blocks, "\n\n"))
		blocks = nil
		if body == "" {
			return
		}
		fields := extractors.SourceFields(raw)
		if section != "" {
			fields[domain.MetaSection] = section
		}
		items = append(items, extractors.NewTextItem(body, fields))
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			section = truncate(inlineText(node, src), domain.SectionMaxChars)
			blocks = append(blocks, inlineText(node, src))
		case *east.Table:
			flush()
			items = append(items, tableItem(node, src, raw))
		case *ast.ThematicBreak, *ast.HTMLBlock:
		default:
			if body := blockText(node, src); strings.TrimSpace(body) != "" {
				blocks = append(blocks, body)
			}
		}
	}
	flush()

	return items, nil
}

func tableItem(tbl *east.Table, src []byte, raw *domain.RawDocument) driven.Item {
	var rows [][]string
	for r := tbl.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(inlineText(c, src)))
		}
		rows = append(rows, cells)
	}
	return extractors.NewTableItem(rows, "", extractors.TableFields(raw))
}

// blockText renders a block and its nested blocks, one line per leaf block.
func blockText(n ast.Node, src []byte) string {
	var parts []string
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			parts = append(parts, inlineText(c, src))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			parts = append(parts, strings.TrimRight(linesText(c, src), "\n"))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *east.Table:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(parts, "\n")
}

// inlineText concatenates the text of inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Value(src))
			switch {
			case t.HardLineBreak():
				b.WriteByte('\n')
			case t.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
