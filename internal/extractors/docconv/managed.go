package docconv

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Managed implements the interface.
var _ driven.Extractor = (*Managed)(nil)

// ManagedPriority makes the managed loader the first URL tier.
const ManagedPriority = 100

// Managed converts fetched web content with readability enabled.
type Managed struct {
	readability bool
}

// NewManaged creates the managed URL loader.
func NewManaged() *Managed {
	return &Managed{readability: true}
}

// Name returns the tier name.
func (m *Managed) Name() string {
	return "docconv-managed"
}

// Priority returns the selection priority.
func (m *Managed) Priority() int {
	return ManagedPriority
}

// Accepts reports whether the source is a URL.
func (m *Managed) Accepts(src domain.Source, _ *domain.RawDocument) bool {
	return src.IsURL()
}

// Policy returns the segmentation policy.
func (m *Managed) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract converts the page body to text.
func (m *Managed) Extract(ctx context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mime := extractors.MediaType(raw.MIMEType)
	if mime == "" {
		mime = domain.MIMETypeHTML
	}

	body, _, err := convert(ctx, raw.Content, mime, m.readability)
	if err != nil {
		return nil, err
	}
	return []driven.Item{extractors.NewTextItem(body, extractors.SourceFields(raw))}, nil
}

// convert runs docconv over content. Plain text types are decoded directly
// since docconv has no converter for them, and HTML takes convertHTML.
func convert(ctx context.Context, content []byte, mime string, readability bool) (string, map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if isPlainText(mime) {
		return extractors.DecodeText(content), nil, nil
	}
	if mime == domain.MIMETypeHTML {
		return convertHTML(content, readability)
	}

	res, err := docconv.Convert(bytes.NewReader(content), mime, readability)
	if err != nil {
		return "", nil, fmt.Errorf("%w: docconv %s: %w", domain.ErrExtraction, mime, err)
	}
	return res.Body, res.Meta, nil
}

func isPlainText(mime string) bool {
	switch mime {
	case domain.MIMETypeHTML, "text/xml", "text/url":
		return false
	}
	return strings.HasPrefix(mime, "text/")
}
