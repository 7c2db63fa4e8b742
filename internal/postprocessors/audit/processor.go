// Package audit provides the passage size quality check.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Name is the registry name of the processor.
const Name = "audit"

// Ensure Processor implements the interface.
var _ driven.PassageProcessor = (*Processor)(nil)

// Processor warns about passages whose whitespace token count is below the
// overlap or above twice the chunk size. It never changes passages.
type Processor struct {
	chunkSize int
	overlap   int
}

// New creates an audit processor.
func New(chunkSize, overlap int) (*Processor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: audit chunk size must be positive", domain.ErrConfiguration)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: audit overlap must not be negative", domain.ErrConfiguration)
	}
	return &Processor{chunkSize: chunkSize, overlap: overlap}, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process records one quality warning per out-of-band passage.
func (p *Processor) Process(_ context.Context, set *driven.PassageSet) error {
	upper := 2 * p.chunkSize
	for i, passage := range set.Passages {
		tokens := len(strings.Fields(passage.Content))
		if tokens >= p.overlap && tokens <= upper {
			continue
		}

		w := domain.NewWarning(domain.WarningQuality, set.Source, Name,
			fmt.Errorf("token_count=%d out of bounds (<%d or >%d)", tokens, p.overlap, upper))
		if idx, ok := passage.ChunkIndex(); ok {
			w.ChunkIndex = idx
		} else {
			w.ChunkIndex = i
		}
		set.Warn(w)
	}
	return nil
}
