package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestService = (*IngestOrchestrator)(nil)

// IngestOrchestrator runs the ingestion pipeline:
// load, process, embed and upsert, then index.
type IngestOrchestrator struct {
	loader    *LoaderChain
	pipelines driven.PassagePipelineFactory
	upserter  *BatchUpserter
	index     *LexicalIndexBuilder
	runs      driven.RunStore

	// Status tracking
	mu     sync.RWMutex
	active map[string]*driving.IngestStatus
}

// NewIngestOrchestrator creates a new ingest orchestrator.
// The pipelines factory and run store are optional; without a factory the
// passages go straight to the upserter, without a store runs are not recorded.
func NewIngestOrchestrator(
	loader *LoaderChain,
	pipelines driven.PassagePipelineFactory,
	upserter *BatchUpserter,
	index *LexicalIndexBuilder,
	runs driven.RunStore,
) *IngestOrchestrator {
	return &IngestOrchestrator{
		loader:    loader,
		pipelines: pipelines,
		upserter:  upserter,
		index:     index,
		runs:      runs,
		active:    make(map[string]*driving.IngestStatus),
	}
}

// Ingest runs one ingestion. Recovered failures are logged and returned on
// the report; fatal errors also mark the run as failed.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *IngestOrchestrator) Ingest(
	ctx context.Context,
	opts domain.IngestOptions,
	progress driving.ProgressFunc,
) (*domain.IngestReport, error) {
	// 1. Validate before any work starts
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	src, err := domain.ParseSource(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: source %q", domain.ErrConfiguration, opts.Source)
	}

	// 2. Claim the collection
	status, err := o.begin(opts.Collection)
	if err != nil {
		return nil, err
	}
	defer o.finish(opts.Collection)

	report := &domain.IngestReport{
		Run: domain.Run{
			ID:         uuid.NewString(),
			Collection: opts.Collection,
			Source:     opts.Source,
			Status:     domain.RunStatusRunning,
			StartedAt:  time.Now(),
		},
	}
	o.saveRun(ctx, report.Run)

	notify := func(p domain.IngestProgress) {
		o.update(opts.Collection, func(s *driving.IngestStatus) { s.Stage = p.Stage })
		if progress != nil {
			progress(p)
		}
	}

	logger.Info("Starting ingestion of %s into %s", opts.Source, opts.Collection)

	// 3. Load passages
	logger.Section("Loading")
	notify(domain.IngestProgress{Stage: domain.StageLoading, Message: opts.Source})
	passages, warnings, err := o.loader.Crawl(ctx, src, opts.CrawlDepth, LoadParams{
		ChunkSize:   opts.ChunkSize,
		Overlap:     opts.Overlap,
		Concurrency: opts.Concurrency,
	})
	o.warn(report, status, warnings)
	if err != nil {
		return report, o.fail(ctx, report, fmt.Errorf("load %s: %w", opts.Source, err))
	}
	if len(passages) == 0 {
		return report, o.fail(ctx, report, domain.ErrNoDocuments)
	}
	logger.Info("Loaded %d passages", len(passages))

	// 4. Run passage processors
	logger.Section("Processing")
	notify(domain.IngestProgress{Stage: domain.StageEnriching, Total: len(passages)})
	set := &driven.PassageSet{Source: opts.Source, Passages: passages}
	if o.pipelines != nil {
		pipeline, err := o.pipelines.BuildPipeline(domain.PipelineConfigFor(opts))
		if err != nil {
			return report, o.fail(ctx, report, fmt.Errorf("build pipeline: %w", err))
		}
		if err := pipeline.Process(ctx, set); err != nil {
			o.warn(report, status, set.Warnings)
			return report, o.fail(ctx, report, fmt.Errorf("process passages: %w", err))
		}
	}
	o.warn(report, status, set.Warnings)
	report.Run.Passages = len(set.Passages)
	report.Run.Summaries = len(set.Derived)

	// 5. Embed and upsert in batches
	logger.Section("Upserting")
	all := set.All()
	result, err := o.upserter.UpsertAll(ctx, opts.Collection, all, UpsertOptions{
		BatchSize: opts.BatchSize,
		Distance:  opts.Distance,
		IDMode:    opts.IDMode,
		Progress: func(done, total int) {
			o.update(opts.Collection, func(s *driving.IngestStatus) {
				s.PointsUpserted = min(done*opts.BatchSize, len(all))
			})
			notify(domain.IngestProgress{Stage: domain.StageUpserting, Done: done, Total: total})
		},
	})
	report.Points = result.Points
	report.Run.Batches = result.Batches
	if err != nil {
		return report, o.fail(ctx, report, err)
	}
	logger.Info("Upserted %d points in %d batches", result.Points, result.Batches)

	// 6. Rebuild the lexical index from the collection
	if opts.BuildIndex && o.index != nil {
		logger.Section("Indexing")
		notify(domain.IngestProgress{Stage: domain.StageIndexing})
		index, err := o.index.Build(ctx, opts.Collection)
		if err != nil {
			return report, o.fail(ctx, report, fmt.Errorf("build lexical index: %w", err))
		}
		path, warning := o.index.Write(ctx, opts.Collection, index, opts.LexicalIndexPath())
		if warning != nil {
			o.warn(report, status, []domain.Warning{*warning})
		} else {
			report.Run.IndexPath = path
			report.IndexEntries = len(index)
			logger.Info("Lexical index written to %s (%d entries)", path, len(index))
		}
	}

	// 7. Record the completed run
	now := time.Now()
	report.Run.Status = domain.RunStatusCompleted
	report.Run.CompletedAt = &now
	o.saveRun(ctx, report.Run)

	notify(domain.IngestProgress{Stage: domain.StageDone, Done: result.Points, Total: result.Points})
	logger.Info("Ingestion complete: %d points, %d warnings", report.Points, len(report.Warnings))
	return report, nil
}

// Status returns the state of the latest ingestion into a collection.
func (o *IngestOrchestrator) Status(_ context.Context, collection string) (*driving.IngestStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.active[collection]; ok {
		// Return a copy to avoid race conditions
		copied := *status
		return &copied, nil
	}

	// Never ran - return idle status
	return &driving.IngestStatus{
		Collection: collection,
		Running:    false,
	}, nil
}

// begin marks a collection as running. Only one ingestion per collection
// may run at a time.
func (o *IngestOrchestrator) begin(collection string) (*driving.IngestStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.active[collection]; ok && s.Running {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, collection)
	}
	status := &driving.IngestStatus{Collection: collection, Running: true}
	o.active[collection] = status
	return status, nil
}

func (o *IngestOrchestrator) finish(collection string) {
	o.update(collection, func(s *driving.IngestStatus) { s.Running = false })
}

func (o *IngestOrchestrator) update(collection string, fn func(*driving.IngestStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.active[collection]; ok {
		fn(s)
	}
}

// warn logs warnings and records them on the report.
func (o *IngestOrchestrator) warn(report *domain.IngestReport, status *driving.IngestStatus, warnings []domain.Warning) {
	if len(warnings) == 0 {
		return
	}
	for _, w := range warnings {
		logger.Warn("%v", w)
	}
	report.Warnings = append(report.Warnings, warnings...)
	report.Run.Warnings = len(report.Warnings)
	o.update(status.Collection, func(s *driving.IngestStatus) { s.WarningCount = len(report.Warnings) })
}

// fail records a failed run and returns err unchanged.
func (o *IngestOrchestrator) fail(ctx context.Context, report *domain.IngestReport, err error) error {
	now := time.Now()
	report.Run.Status = domain.RunStatusFailed
	report.Run.CompletedAt = &now
	report.Run.Error = err.Error()

	// The run record should land even when the ingest context was cancelled.
	saveCtx := ctx
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		saveCtx = context.WithoutCancel(ctx)
	}
	o.saveRun(saveCtx, report.Run)
	return err
}

// saveRun persists run history. History is best effort and never fails a run.
func (o *IngestOrchestrator) saveRun(ctx context.Context, run domain.Run) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Save(ctx, run); err != nil {
		logger.Warn("save run %s: %v", run.ID, err)
	}
}
