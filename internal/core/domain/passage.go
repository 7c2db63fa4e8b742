package domain

import (
	"maps"
	"strings"
)

// Reserved metadata keys carried on passages and stored payloads.
const (
	MetaSource       = "source"
	MetaSection      = "section"
	MetaNeighborPrev = "neighbor_prev"
	MetaNeighborNext = "neighbor_next"
	MetaChunkIndex   = "chunk_index"
	MetaDate         = "date"
	MetaIsTable      = "is_table"
	MetaIsSummary    = "is_summary"
	MetaRaw          = "raw"

	// PayloadTextKey is the payload key holding the passage content.
	PayloadTextKey = "chunk_text"
)

// Passage is one bounded unit of text plus metadata.
// It is the unit that gets embedded and stored.
type Passage struct {
	// Content is the passage text. Never empty after trimming.
	Content string

	// Metadata holds scalar or structured values keyed by name.
	Metadata map[string]any
}

// NewPassage creates a passage with a copy of metadata.
// Returns false if content is empty or whitespace-only.
func NewPassage(content string, metadata map[string]any) (Passage, bool) {
	if strings.TrimSpace(content) == "" {
		return Passage{}, false
	}
	meta := make(map[string]any, len(metadata)+1)
	maps.Copy(meta, metadata)
	return Passage{Content: content, Metadata: meta}, true
}

// SetDefault sets key to value unless the key is already present.
func (p *Passage) SetDefault(key string, value any) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]any)
	}
	if _, ok := p.Metadata[key]; !ok {
		p.Metadata[key] = value
	}
}

// Clone returns a passage with an independent copy of the metadata map.
func (p Passage) Clone() Passage {
	meta := make(map[string]any, len(p.Metadata))
	maps.Copy(meta, p.Metadata)
	return Passage{Content: p.Content, Metadata: meta}
}

// ChunkIndex returns the chunk_index metadata value if it is an int.
func (p Passage) ChunkIndex() (int, bool) {
	switch v := p.Metadata[MetaChunkIndex].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Payload returns the stored payload for this passage: the metadata
// with the content copied under PayloadTextKey.
func (p Passage) Payload() map[string]any {
	payload := make(map[string]any, len(p.Metadata)+1)
	maps.Copy(payload, p.Metadata)
	payload[PayloadTextKey] = p.Content
	return payload
}
