package segmenter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DefaultSeparators are tried in order by the recursive splitter.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// Ensure Recursive implements the interface.
var _ driven.Segmenter = (*Recursive)(nil)

// Recursive splits on the coarsest separator present, merges the pieces up
// to the chunk size and recurses into pieces that are still too large with
// the next separator. Consecutive chunks share up to Overlap runes of
// whole pieces.
type Recursive struct {
	chunkSize  int
	overlap    int
	separators []string
}

// RecursiveOption configures the recursive splitter.
type RecursiveOption func(*Recursive)

// WithSeparators replaces the default separator list.
func WithSeparators(seps ...string) RecursiveOption {
	return func(r *Recursive) {
		if len(seps) > 0 {
			r.separators = seps
		}
	}
}

// NewRecursive creates a recursive separator splitter.
func NewRecursive(chunkSize, overlap int, opts ...RecursiveOption) (*Recursive, error) {
	if err := (Config{MaxChars: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrConfiguration, overlap, chunkSize)
	}

	r := &Recursive{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name returns the segmenter name.
func (r *Recursive) Name() string {
	return "recursive"
}

// Segment splits text recursively.
func (r *Recursive) Segment(text string) ([]string, error) {
	if isBlank(text) {
		return nil, nil
	}
	return r.split(text, r.separators), nil
}

func (r *Recursive) split(text string, separators []string) []string {
	sep, rest := "", []string(nil)
	for i, s := range separators {
		if strings.Contains(text, s) {
			sep, rest = s, separators[i+1:]
			break
		}
	}

	var (
		out  []string
		good []string
	)
	for _, piece := range r.pieces(text, sep) {
		if utf8.RuneCountInString(piece) <= r.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, r.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, hardCut(piece, r.chunkSize)...)
		} else {
			out = append(out, r.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, r.merge(good, sep)...)
	}
	return out
}

// pieces splits on sep and drops blank pieces. An empty sep cuts the text
// into single-chunk windows.
func (r *Recursive) pieces(text, sep string) []string {
	if sep == "" {
		return hardCut(text, r.chunkSize)
	}
	var out []string
	for _, p := range strings.Split(text, sep) {
		if !isBlank(p) {
			out = append(out, p)
		}
	}
	return out
}

// merge joins pieces with sep up to the chunk size, keeping a tail of whole
// pieces no longer than the overlap as the start of the next chunk.
func (r *Recursive) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)
	joinedLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var (
		out     []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n+joinedLen(len(current)) > r.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				out = append(out, chunk)
			}
			for len(current) > 0 && (total > r.overlap || total+n+joinedLen(len(current)) > r.chunkSize) {
				total -= utf8.RuneCountInString(current[0]) + joinedLen(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n + joinedLen(len(current)-1)
	}
	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// hardCut slices text into rune windows of size n.
func hardCut(text string, n int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += n {
		end := min(start+n, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
