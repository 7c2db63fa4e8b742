package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// PassageProcessor runs over the loaded passages of one ingestion.
// Processors are chained in a pipeline (enrichment, auditing, summaries).
type PassageProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process mutates the set: metadata in place, derived passages appended
	// to Derived, recovered failures recorded as warnings.
	Process(ctx context.Context, set *PassageSet) error
}

// PassageProcessorPipeline chains multiple PassageProcessors.
type PassageProcessorPipeline interface {
	// Process runs the set through all processors in order.
	Process(ctx context.Context, set *PassageSet) error
}

// PassageSet is the working set passed through the processor pipeline.
type PassageSet struct {
	// Source is the source reference being ingested.
	Source string

	// Passages is the main-pass list in load order.
	Passages []domain.Passage

	// Derived holds passages appended after the main pass, such as summaries.
	// They receive no neighbour links and are not enriched.
	Derived []domain.Passage

	// Warnings collects recovered failures.
	Warnings []domain.Warning
}

// Warn records a recovered failure.
func (s *PassageSet) Warn(w domain.Warning) {
	s.Warnings = append(s.Warnings, w)
}

// All returns the main passages followed by derived passages.
func (s *PassageSet) All() []domain.Passage {
	all := make([]domain.Passage, 0, len(s.Passages)+len(s.Derived))
	all = append(all, s.Passages...)
	return append(all, s.Derived...)
}

// PassagePipelineFactory builds the processor pipeline for one ingestion.
type PassagePipelineFactory interface {
	// BuildPipeline constructs the processors named in cfg, in order.
	BuildPipeline(cfg domain.PipelineConfig) (PassageProcessorPipeline, error)
}
