package segmenter

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Chain implements the interface.
var _ driven.Segmenter = (*Chain)(nil)

// Chain tries segmenters in order and returns the first successful result.
type Chain struct {
	segmenters []driven.Segmenter
}

// NewChain creates a chain over the given segmenters.
func NewChain(segmenters ...driven.Segmenter) *Chain {
	return &Chain{segmenters: segmenters}
}

// Name returns the segmenter name.
func (c *Chain) Name() string {
	return "chain"
}

// Segment returns the output of the first segmenter that succeeds.
// If all fail, the joined errors are returned.
func (c *Chain) Segment(text string) ([]string, error) {
	errs := make([]error, 0, len(c.segmenters))
	for _, s := range c.segmenters {
		out, err := s.Segment(text)
		if err == nil {
			return out, nil
		}
		logger.Debug("segmenter %s unavailable, trying next: %v", s.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: empty segmenter chain", domain.ErrSegmenterUnavailable)
	}
	return nil, errors.Join(errs...)
}

// Ensure Factory implements the interface.
var _ driven.SegmenterFactory = (*Factory)(nil)

// Factory builds segmenters per policy.
type Factory struct {
	encoding string
}

// FactoryOption configures the factory.
type FactoryOption func(*Factory)

// WithEncoding selects the tiktoken encoding used by the token splitter.
func WithEncoding(name string) FactoryOption {
	return func(f *Factory) {
		if name != "" {
			f.encoding = name
		}
	}
}

// NewFactory creates a segmenter factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{encoding: DefaultEncoding}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Segmenter returns the segmenter for a policy:
//
//   - PolicyStructured: tokens, then recursive, then paragraph
//   - PolicyParagraph: paragraph with overlap
//   - PolicySimple: character window without overlap
func (f *Factory) Segmenter(policy driven.SegmentPolicy, chunkSize, overlap int) (driven.Segmenter, error) {
	para, err := NewParagraph(Config{MaxChars: chunkSize, Overlap: overlap})
	if err != nil {
		return nil, err
	}

	switch policy {
	case driven.PolicyParagraph:
		return para, nil

	case driven.PolicySimple:
		return NewSimple(chunkSize)

	case driven.PolicyStructured:
		var chain []driven.Segmenter
		if tok, err := NewTokens(chunkSize, overlap, f.encoding); err == nil {
			chain = append(chain, tok)
		}
		if rec, err := NewRecursive(chunkSize, overlap); err == nil {
			chain = append(chain, rec)
		}
		chain = append(chain, para)
		return NewChain(chain...), nil

	default:
		return nil, fmt.Errorf("%w: segment policy %d", domain.ErrUnsupportedType, policy)
	}
}
