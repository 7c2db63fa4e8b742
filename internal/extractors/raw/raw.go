// Package raw provides the tiers that read a document as undecoded text:
// the raw read for PDF and HTML files, and the absolute fallback that
// accepts every source.
package raw

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure the tiers implement the interface.
var (
	_ driven.Extractor = (*Simple)(nil)
	_ driven.Extractor = (*Fallback)(nil)
)

// Tier priorities.
const (
	// SimplePriority is the last format-specific tier for PDF and HTML.
	SimplePriority = 40

	// FallbackPriority is the absolute fallback.
	FallbackPriority = 0
)

// Simple reads PDF and HTML files as text and window-splits them.
type Simple struct{}

// NewSimple creates the raw read tier.
func NewSimple() *Simple {
	return &Simple{}
}

// Name returns the tier name.
func (s *Simple) Name() string {
	return "raw-simple"
}

// Priority returns the selection priority.
func (s *Simple) Priority() int {
	return SimplePriority
}

// Accepts reports whether the source is a local PDF or HTML file.
func (s *Simple) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypePDF, ".pdf") ||
		extractors.HasFormat(src, raw, domain.MIMETypeHTML, ".html", ".htm")
}

// Policy returns the segmentation policy.
func (s *Simple) Policy() driven.SegmentPolicy {
	return driven.PolicySimple
}

// Extract returns the content as a single item.
func (s *Simple) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	return whole(raw)
}

// Fallback reads any source as text and segments it by paragraph.
type Fallback struct{}

// NewFallback creates the absolute fallback tier.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name returns the tier name.
func (f *Fallback) Name() string {
	return "raw-fallback"
}

// Priority returns the selection priority.
func (f *Fallback) Priority() int {
	return FallbackPriority
}

// Accepts reports true for every source.
func (f *Fallback) Accepts(domain.Source, *domain.RawDocument) bool {
	return true
}

// Policy returns the segmentation policy.
func (f *Fallback) Policy() driven.SegmentPolicy {
	return driven.PolicyParagraph
}

// Extract returns the content as a single item.
func (f *Fallback) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	return whole(raw)
}

func whole(raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	return []driven.Item{
		extractors.NewTextItem(extractors.DecodeText(raw.Content), extractors.SourceFields(raw)),
	}, nil
}
