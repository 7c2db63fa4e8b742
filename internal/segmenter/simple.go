package segmenter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// SegmentSimple splits text into windows of at most maxChars runes. When a
// window boundary falls inside a word, the window backs up to the last space
// in it. Pieces are trimmed and empty pieces dropped; there is no overlap.
func SegmentSimple(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive, got %d", domain.ErrConfiguration, maxChars)
	}

	runes := []rune(text)
	var pieces []string
	for start := 0; start < len(runes); {
		end := min(start+maxChars, len(runes))
		if end < len(runes) {
			if split := lastSpace(runes, start, end); split > start {
				end = split
			}
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		start = end
	}
	return pieces, nil
}

// lastSpace returns the index of the last space in runes[start:end], or -1.
func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// Ensure Simple implements the interface.
var _ driven.Segmenter = (*Simple)(nil)

// Simple adapts SegmentSimple to the Segmenter port.
type Simple struct {
	maxChars int
}

// NewSimple creates a character window segmenter.
func NewSimple(maxChars int) (*Simple, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive, got %d", domain.ErrConfiguration, maxChars)
	}
	return &Simple{maxChars: maxChars}, nil
}

// Name returns the segmenter name.
func (s *Simple) Name() string {
	return "simple"
}

// Segment splits text into whitespace-snapped windows.
func (s *Simple) Segment(text string) ([]string, error) {
	return SegmentSimple(text, s.maxChars)
}

// isBlank reports whether s has no visible characters.
func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
