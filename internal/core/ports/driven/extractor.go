package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Extractor is one loader tier: it turns raw bytes into text items.
// Extractors are tried in descending priority order; a failure moves the
// loader chain to the next accepting extractor.
type Extractor interface {
	// Name identifies the tier in warnings and logs.
	Name() string

	// Priority returns the selection priority (higher = preferred).
	// URL tiers use 90-100, format-specific file tiers 40-89,
	// the generic structural tier 20 and the absolute fallback 0.
	Priority() int

	// Accepts reports whether this tier applies to the source.
	Accepts(src domain.Source, raw *domain.RawDocument) bool

	// Policy selects how item text is segmented.
	Policy() SegmentPolicy

	// Extract produces items from the raw document.
	Extract(ctx context.Context, raw *domain.RawDocument) ([]Item, error)
}

// Item is one structural unit produced by an extractor.
type Item interface {
	// Text returns the item's text and whether it has any.
	Text() (string, bool)

	// Fields returns item metadata. Extractors report at most the keys
	// id, title, name, source, path, url and raw.
	Fields() map[string]any
}

// Table is an optional Item capability. Table items become a single
// passage flagged is_table instead of being segmented.
type Table interface {
	Item

	// Markdown renders the table as markdown-like tabular text.
	Markdown() (string, error)
}

// SegmentPolicy selects the segmenter applied to extracted text.
type SegmentPolicy int

const (
	// PolicyStructured tries the token splitter, then the recursive
	// separator splitter, then the paragraph segmenter.
	PolicyStructured SegmentPolicy = iota

	// PolicyParagraph uses the paragraph/sentence segmenter with overlap.
	PolicyParagraph

	// PolicySimple uses the plain character window segmenter.
	PolicySimple
)

// String returns the policy name.
func (p SegmentPolicy) String() string {
	switch p {
	case PolicyStructured:
		return "structured"
	case PolicyParagraph:
		return "paragraph"
	case PolicySimple:
		return "simple"
	default:
		return "unknown"
	}
}

// Segmenter splits text into ordered, bounded, non-empty pieces.
type Segmenter interface {
	// Name identifies the segmenter in logs.
	Name() string

	// Segment splits text. Empty input yields an empty slice.
	Segment(text string) ([]string, error)
}

// SegmenterFactory builds a segmenter for a policy and run parameters.
type SegmenterFactory interface {
	Segmenter(policy SegmentPolicy, chunkSize, overlap int) (Segmenter, error)
}
