package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Plain implements the interface.
var _ driven.Extractor = (*Plain)(nil)

// PlainPriority ranks the plain tier after the layout partitioner.
const PlainPriority = 60

// Plain extracts the text stream of every page without layout analysis.
type Plain struct{}

// NewPlain creates a plain-text PDF tier.
func NewPlain() *Plain {
	return &Plain{}
}

// Name returns the tier name.
func (p *Plain) Name() string {
	return "pdf-text"
}

// Priority returns the selection priority.
func (p *Plain) Priority() int {
	return PlainPriority
}

// Accepts reports whether the source is a local PDF.
func (p *Plain) Accepts(src domain.Source, raw *domain.RawDocument) bool {
	return extractors.HasFormat(src, raw, domain.MIMETypePDF, ".pdf")
}

// Policy returns the segmentation policy.
func (p *Plain) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract returns the document text as one item.
func (p *Plain) Extract(_ context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r, err := open(raw.Content)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = safely(func() error {
		text, textErr := r.GetPlainText()
		if textErr != nil {
			return textErr
		}
		body, textErr = io.ReadAll(text)
		return textErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %w", domain.ErrExtraction, err)
	}
	return []driven.Item{extractors.NewTextItem(string(body), extractors.SourceFields(raw))}, nil
}
