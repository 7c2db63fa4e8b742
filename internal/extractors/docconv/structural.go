package docconv

import (
	"context"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/extractors"
)

// Ensure Structural implements the interface.
var _ driven.Extractor = (*Structural)(nil)

// StructuralPriority ranks the generic tier above the absolute fallback only.
const StructuralPriority = 20

// Structural is the generic extractor for any source. It converts the
// document by MIME type and describes it with the fields id, title, name,
// source, path, url and raw.
type Structural struct{}

// NewStructural creates the generic structural extractor.
func NewStructural() *Structural {
	return &Structural{}
}

// Name returns the tier name.
func (s *Structural) Name() string {
	return "docconv-structural"
}

// Priority returns the selection priority.
func (s *Structural) Priority() int {
	return StructuralPriority
}

// Accepts reports true for every source.
func (s *Structural) Accepts(domain.Source, *domain.RawDocument) bool {
	return true
}

// Policy returns the segmentation policy.
func (s *Structural) Policy() driven.SegmentPolicy {
	return driven.PolicyStructured
}

// Extract converts the document into a single item.
func (s *Structural) Extract(ctx context.Context, raw *domain.RawDocument) ([]driven.Item, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mime := extractors.MediaType(raw.MIMEType)
	if mime == "" || mime == domain.MIMETypeOctet {
		mime = docconv.MimeTypeByExtension(locator(raw))
	}

	body, meta, err := convert(ctx, raw.Content, mime, false)
	if err != nil {
		return nil, err
	}
	return []driven.Item{extractors.NewTextItem(body, itemFields(raw, meta))}, nil
}

// itemFields collects the identifying fields of a converted document.
func itemFields(raw *domain.RawDocument, meta map[string]string) map[string]any {
	fields := map[string]any{domain.MetaSource: raw.Source.Ref}

	if id, ok := raw.Metadata["id"]; ok {
		fields["id"] = id
	}
	if title := lookup(meta, "title"); title != "" {
		fields["title"] = title
	}
	if loc := locator(raw); loc != "" {
		fields["name"] = filepath.Base(loc)
	}
	if raw.Path != "" {
		fields["path"] = raw.Path
	}
	if raw.Source.IsURL() {
		fields["url"] = raw.URI
	}
	if len(meta) > 0 {
		fields[domain.MetaRaw] = meta
	}
	return fields
}

func locator(raw *domain.RawDocument) string {
	if raw.URI != "" {
		return raw.URI
	}
	return raw.Source.Ref
}

// lookup finds a metadata value ignoring key case.
func lookup(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
