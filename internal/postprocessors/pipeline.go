// Package postprocessors provides the passage processing pipeline that runs
// between loading and upserting.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PassageProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PassageProcessors and runs them in order.
type Pipeline struct {
	processors []driven.PassageProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PassageProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the passage set through all processors in order.
// Processors record recovered failures on the set; a returned error stops
// the pipeline.
func (p *Pipeline) Process(ctx context.Context, set *driven.PassageSet) error {
	if set == nil {
		return fmt.Errorf("passage set is nil")
	}

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := processor.Process(ctx, set); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PassageProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
