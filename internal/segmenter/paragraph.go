// Package segmenter splits extracted text into bounded passages.
//
// The paragraph segmenter is the primary algorithm: it packs blank-line
// separated paragraphs up to a character budget, falls back to sentence
// packing for oversized paragraphs and stitches a character overlap onto
// each chunk from the second onward. The other segmenters (simple window,
// recursive separator, token window) are selected by policy through Factory.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// paragraphSeparator is placed between packed paragraphs.
const paragraphSeparator = "\n\n"

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]\s+`)
)

// Config holds the paragraph segmenter parameters.
type Config struct {
	// MaxChars is the character budget per chunk, counted in runes.
	MaxChars int

	// Overlap is the number of trailing runes of the previous chunk
	// prefixed to each chunk from the second onward.
	Overlap int
}

// Validate rejects non-positive budgets and negative overlaps.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("%w: max chars must be positive, got %d", domain.ErrConfiguration, c.MaxChars)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrConfiguration, c.Overlap)
	}
	return nil
}

// Segment splits text on paragraph and sentence boundaries into chunks of at
// most cfg.MaxChars runes, then applies the character overlap.
//
// A single sentence longer than MaxChars is emitted as one oversized chunk.
// Overlap is taken from the previous chunk as originally produced, so it
// never accumulates across chunks.
func Segment(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunks := pack(text, cfg.MaxChars)
	if cfg.Overlap == 0 || len(chunks) < 2 {
		return chunks, nil
	}
	return applyOverlap(chunks, cfg.Overlap), nil
}

// pack produces the pre-overlap chunks.
func pack(text string, maxChars int) []string {
	var (
		chunks  []string
		group   []string
		running int
	)

	flush := func() {
		if len(group) == 0 {
			return
		}
		if chunk := strings.TrimSpace(strings.Join(group, paragraphSeparator)); chunk != "" {
			chunks = append(chunks, chunk)
		}
		group = nil
		running = 0
	}

	for _, para := range paragraphBreak.Split(text, -1) {
		p := strings.TrimSpace(para)
		if p == "" {
			continue
		}
		n := utf8.RuneCountInString(p)

		if n > maxChars {
			flush()
			chunks = append(chunks, packSentences(p, maxChars)...)
			continue
		}

		if running+n+len(paragraphSeparator) > maxChars {
			flush()
		}
		group = append(group, p)
		running += n + len(paragraphSeparator)
	}
	flush()

	return chunks
}

// packSentences greedily joins the sentences of an oversized paragraph with
// single spaces.
func packSentences(paragraph string, maxChars int) []string {
	var (
		chunks []string
		curr   strings.Builder
		length int
	)

	for _, sentence := range splitSentences(paragraph) {
		n := utf8.RuneCountInString(sentence)
		switch {
		case length == 0:
			curr.WriteString(sentence)
			length = n
		case length+1+n <= maxChars:
			curr.WriteByte(' ')
			curr.WriteString(sentence)
			length += 1 + n
		default:
			chunks = append(chunks, curr.String())
			curr.Reset()
			curr.WriteString(sentence)
			length = n
		}
	}
	if length > 0 {
		chunks = append(chunks, curr.String())
	}
	return chunks
}

// splitSentences splits after sentence-ending punctuation followed by
// whitespace. The punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// applyOverlap prefixes chunk i with the tail of original chunk i-1.
func applyOverlap(chunks []string, overlap int) []string {
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		out[i] = tail(chunks[i-1], overlap) + " " + chunks[i]
	}
	return out
}

// tail returns the last n runes of s, or s if it is shorter.
func tail(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[len(r)-n:])
}

// Ensure Paragraph implements the interface.
var _ driven.Segmenter = (*Paragraph)(nil)

// Paragraph adapts Segment to the Segmenter port.
type Paragraph struct {
	cfg Config
}

// NewParagraph creates a paragraph segmenter.
func NewParagraph(cfg Config) (*Paragraph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Paragraph{cfg: cfg}, nil
}

// Name returns the segmenter name.
func (p *Paragraph) Name() string {
	return "paragraph"
}

// Segment splits text with the paragraph algorithm.
func (p *Paragraph) Segment(text string) ([]string, error) {
	return Segment(text, p.cfg)
}
