package pdf

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Layout implements the interface.
var _ driven.Extractor = (*Layout)(nil)

// LayoutPriority ranks the layout partitioner first for local PDFs.
const LayoutPriority = 80

// Layout thresholds, relative to the estimated character width and the
// median line spacing of a page.
const (
	spaceGap     = 0.3
	cellGap      = 2.5
	paragraphGap = 1.6
	minTableRows = 2

	// glyphSamples is the number of single-character runs needed to measure
	// the character width directly.
	glyphSamples = 8

	// widthPerSpacing approximates a character width from the line spacing.
	widthPerSpacing = 0.45

	// defaultCharWidth is used for single-line pages, in points.
	defaultCharWidth = 5.0
)

// glyph is a positioned run of text on a line.
type glyph struct {
	X float64
	S string
}

// line is one row of glyphs at a vertical position.
type line struct {
	Y      float64
	Glyphs []glyph
}

// Layout rebuilds page lines from positioned text and partitions them into
// paragraphs and tables.
type Layout struct{}

// NewLayout creates a layout PDF partitioner.
func NewLayout() *Layout {
	return &Layout{}
}

// Name returns the tier name.
func (l *Layout) Name() string {
	return "pdf-layout"
}

// Priority returns the selection priority.
func (l *Layout) Priority() int {
	return LayoutPriority
}

// Accepts reports whether the source is a local PDF.
func (l *Layout) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypePDF, ".pdf")
}

// Policy returns the segmentation policy for prose items.
func (l *Layout) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract partitions every page in reading order.
func (l *Layout) Extract(ctx context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r, err := open(raw.Content)
	if err != nil {
		return nil, err
	}

	var items []driven.Item
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		var rows pdf.Rows
		err := safely(func() error {
			var rowErr error
			rows, rowErr = page.GetTextByRow()
			return rowErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", domain.ErrExtraction, i, err)
		}

		items = append(items, partition(toLines(rows), raw)...)
	}
	return items, nil
}

func toLines(rows pdf.Rows) []line {
	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		l := line{Y: float64(row.Position)}
		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			l.Glyphs = append(l.Glyphs, glyph{X: t.X, S: t.S})
		}
		if len(l.Glyphs) > 0 {
			lines = append(lines, l)
		}
	}
	return lines
}

// partition groups the lines of one page, ordered top to bottom.
func partition(lines []line, raw *domain.RawDocument) []driven.Item {
	var (
		items []driven.Item
		para  []string
		table [][]string
	)

	flushPara := func() {
		if text := strings.TrimSpace(strings.Join(para, "\n")); text != "" {
			items = append(items, extractors.NewTextItem(text, extractors.SourceFields(raw)))
		}
		para = nil
	}
	flushTable := func() {
		switch {
		case len(table) >= minTableRows:
			flushPara()
			lines := make([]string, len(table))
			for i, cells := range table {
				lines[i] = strings.Join(cells, " ")
			}
			items = append(items, extractors.NewTableItem(table, strings.Join(lines, "\n"), extractors.TableFields(raw)))
		case len(table) == 1:
			para = append(para, strings.Join(table[0], " "))
		}
		table = nil
	}

	spacing := lineSpacing(lines)
	width := charWidth(lines, spacing)
	for i, l := range lines {
		cells := splitCells(l.Glyphs, width)

		if len(cells) >= 2 && (len(table) == 0 || len(table[0]) == len(cells)) {
			table = append(table, cells)
			continue
		}
		flushTable()
		if len(cells) >= 2 {
			table = append(table, cells)
			continue
		}

		if i > 0 && spacing > 0 && lines[i-1].Y-l.Y > paragraphGap*spacing {
			flushPara()
		}
		para = append(para, cells[0])
	}
	flushTable()
	flushPara()

	return items
}

// splitCells joins the glyphs of a line into words and splits the line into
// cells wherever the horizontal gap is much wider than a character.
func splitCells(glyphs []glyph, advance float64) []string {
	var (
		cells []string
		cur   strings.Builder
	)
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - prev.X - float64(utf8.RuneCountInString(prev.S))*advance
			switch {
			case advance > 0 && gap > cellGap*advance:
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			case advance > 0 && gap > spaceGap*advance:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, collapse(c))
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// charWidth estimates the width of one character on the page. Text runs
// carry no width, so it is measured from single-character runs when the
// page has enough of them and derived from the line spacing otherwise.
func charWidth(lines []line, spacing float64) float64 {
	var adv []float64
	for _, l := range lines {
		for i := 1; i < len(l.Glyphs); i++ {
			d := l.Glyphs[i].X - l.Glyphs[i-1].X
			if utf8.RuneCountInString(l.Glyphs[i-1].S) == 1 && d > 0 {
				adv = append(adv, d)
			}
		}
	}
	switch {
	case len(adv) >= glyphSamples:
		return median(adv)
	case spacing > 0:
		return spacing * widthPerSpacing
	default:
		return defaultCharWidth
	}
}

// lineSpacing is the median vertical distance between consecutive lines.
func lineSpacing(lines []line) float64 {
	var gaps []float64
	for i := 1; i < len(lines); i++ {
		if d := lines[i-1].Y - lines[i].Y; d > 0 {
			gaps = append(gaps, d)
		}
	}
	return median(gaps)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := slices.Clone(values)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
