package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Partitioner implements the interface.
var _ driven.Extractor = (*Partitioner)(nil)

// Tier priorities.
const (
	// URLPriority ranks the partitioner below the managed URL loader.
	URLPriority = 90

	// FilePriority ranks the partitioner first for local HTML files.
	FilePriority = 80
)

const (
	// blockSelector matches the elements emitted as prose items.
	blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, dt, dd, figcaption, address"

	// noiseSelector matches elements that never carry document text.
	noiseSelector = "script, style, noscript, template, svg, head, iframe"
)

// Partitioner splits HTML documents into prose and table items.
type Partitioner struct {
	forURL bool
}

// New creates a partitioner for local .html/.htm files.
func New() *Partitioner {
	return &Partitioner{}
}

// NewForURL creates a partitioner for fetched web pages.
func NewForURL() *Partitioner {
	return &Partitioner{forURL: true}
}

// Name returns the tier name.
func (p *Partitioner) Name() string {
	if p.forURL {
		return "html-partitioner-url"
	}
	return "html-partitioner"
}

// Priority returns the selection priority.
func (p *Partitioner) Priority() int {
	if p.forURL {
		return URLPriority
	}
	return FilePriority
}

// Accepts reports whether the source is a web page or a local HTML file.
func (p *Partitioner) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	if p.forURL {
		return src.IsURL()
	}
	return extractors.HasFormat(src, raw, domain.MIMETypeHTML, ".html", ".htm")
}

// Policy returns the segmentation policy for prose items.
func (p *Partitioner) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract partitions the document in document order.
func (p *Partitioner) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrExtraction, err)
	}
	doc.Find(noiseSelector).Remove()

	var items []driven.Item
	doc.Find("table, " + blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested content is emitted with its outermost block.
		if s.ParentsFiltered("table").Length() > 0 {
			return
		}
		if goquery.NodeName(s) == "table" {
			if item := tableItem(s, raw); item != nil {
				items = append(items, item)
			}
			return
		}
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if text := blockText(s); text != "" {
			items = append(items, extractors.NewTextItem(text, extractors.SourceFields(raw)))
		}
	})

	// Pages without block markup still carry body text.
	if len(items) == 0 {
		if text := collapse(doc.Find("body").Text()); text != "" {
			items = append(items, extractors.NewTextItem(text, extractors.SourceFields(raw)))
		}
	}
	return items, nil
}

func blockText(s *goquery.Selection) string {
	// Tables inside a block are emitted as their own items.
	if s.Find("table").Length() > 0 {
		s = s.Clone()
		s.Find("table").Remove()
	}
	if goquery.NodeName(s) == "pre" {
		return strings.TrimSpace(s.Text())
	}
	return collapse(s.Text())
}

func tableItem(s *goquery.Selection, raw *domain.RawDocument) driven.Item {
	var rows [][]string
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("table").First().Get(0) != s.Get(0) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapse(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	plain := collapse(s.Text())
	if len(rows) == 0 && plain == "" {
		return nil
	}
	return extractors.NewTableItem(rows, plain, extractors.TableFields(raw))
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
