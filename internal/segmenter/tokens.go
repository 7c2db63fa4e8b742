package segmenter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DefaultEncoding is the tokeniser used by current OpenAI chat and embedding models.
const DefaultEncoding = "cl100k_base"

// encoder is the subset of *tiktoken.Tiktoken the token splitter needs.
type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// The BPE ranks are compiled in, so loading an encoding never touches the
// network and token windows are the same in every environment.
func init() {
	tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
}

// loadEncoding loads a tiktoken encoding. Replaced in tests.
var loadEncoding = func(name string) (encoder, error) {
	return tiktoken.GetEncoding(name)
}

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*encodingResult{}
)

type encodingResult struct {
	once sync.Once
	enc  encoder
	err  error
}

// encodingFor loads an encoding once per process. A failed load is
// remembered so later runs fall through to the next segmenter immediately.
func encodingFor(name string) (encoder, error) {
	encodingsMu.Lock()
	res, ok := encodings[name]
	if !ok {
		res = &encodingResult{}
		encodings[name] = res
	}
	encodingsMu.Unlock()

	res.once.Do(func() {
		res.enc, res.err = loadEncoding(name)
	})
	return res.enc, res.err
}

// Ensure Tokens implements the interface.
var _ driven.Segmenter = (*Tokens)(nil)

// Tokens splits text into windows of ChunkSize tokens that advance by
// ChunkSize-Overlap tokens, decoded back to text.
type Tokens struct {
	chunkSize int
	overlap   int
	encoding  string
}

// NewTokens creates a token window splitter. The encoding is loaded lazily
// on first use.
func NewTokens(chunkSize, overlap int, encoding string) (*Tokens, error) {
	if err := (Config{MaxChars: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrConfiguration, overlap, chunkSize)
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tokens{chunkSize: chunkSize, overlap: overlap, encoding: encoding}, nil
}

// Name returns the segmenter name.
func (t *Tokens) Name() string {
	return "tokens"
}

// Segment splits text into token windows. Returns
// domain.ErrSegmenterUnavailable when the encoding cannot be loaded.
func (t *Tokens) Segment(text string) ([]string, error) {
	if isBlank(text) {
		return nil, nil
	}

	enc, err := encodingFor(t.encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: load encoding %s: %w", domain.ErrSegmenterUnavailable, t.encoding, err)
	}

	tokens := enc.Encode(text, nil, nil)
	step := t.chunkSize - t.overlap

	var out []string
	for start := 0; start < len(tokens); start += step {
		end := min(start+t.chunkSize, len(tokens))
		if piece := strings.TrimSpace(enc.Decode(tokens[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(tokens) {
			break
		}
	}
	return out, nil
}
