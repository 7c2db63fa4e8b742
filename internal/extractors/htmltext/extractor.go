// Package htmltext provides the plain-text HTML tier. It flattens the page
// to text and leaves all structure to paragraph segmentation.
package htmltext

import (
	"context"
	"fmt"

	"github.com/jaytaylor/html2text"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Priority ranks the tier after the HTML partitioner.
const Priority = 60

// Extractor converts local HTML files to plain text.
type Extractor struct{}

// New creates a new HTML text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the tier name.
func (e *Extractor) Name() string {
	return "html-text"
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return Priority
}

// Accepts reports whether the source is a local HTML file.
func (e *Extractor) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypeHTML, ".html", ".htm")
}

// Policy returns the segmentation policy.
func (e *Extractor) Policy() driven.SegmentPolicy {
	return driven.PolicyParagraph
}

// Extract returns the whole page as one text item.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := html2text.FromString(extractors.DecodeText(raw.Content), html2text.Options{OmitLinks: true})
	if err != nil {
		return nil, fmt.Errorf("%w: html to text: %w", domain.ErrExtraction, err)
	}
	return []driven.Item{extractors.NewTextItem(text, extractors.SourceFields(raw))}, nil
}
