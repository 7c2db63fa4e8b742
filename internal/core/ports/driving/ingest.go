package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// IngestService runs the ingestion pipeline for a source.
type IngestService interface {
	// Ingest loads, enriches, embeds and upserts a source, then builds the
	// lexical index when enabled. Returns domain.ErrNoDocuments when the
	// source produced no passages.
	Ingest(ctx context.Context, opts domain.IngestOptions, progress ProgressFunc) (*domain.IngestReport, error)

	// Status returns the state of the latest ingestion into a collection.
	Status(ctx context.Context, collection string) (*IngestStatus, error)
}

// IndexService rebuilds the lexical sidecar index from a collection.
type IndexService interface {
	// BuildIndex sweeps the collection and writes the index to path.
	// An empty path selects <collection>_bm25_index.json.
	BuildIndex(ctx context.Context, collection, path string) (*IndexResult, error)
}

// RunService exposes ingestion history.
type RunService interface {
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]domain.Run, error)

	// Get returns one run by id.
	Get(ctx context.Context, id string) (*domain.Run, error)
}

// ProgressFunc receives pipeline progress. It may be nil.
type ProgressFunc func(domain.IngestProgress)

// IngestStatus represents the current state of an ingestion.
type IngestStatus struct {
	// Collection identifies the target collection.
	Collection string

	// Running indicates if an ingestion is currently in progress.
	Running bool

	// Stage is the last reported pipeline stage.
	Stage string

	// PointsUpserted is the count of points written so far.
	PointsUpserted int

	// WarningCount is the number of recovered failures.
	WarningCount int
}

// IndexResult describes a written lexical index.
type IndexResult struct {
	Path    string
	Entries int

	// Warning is set when the index was built but could not be written.
	Warning *domain.Warning
}
