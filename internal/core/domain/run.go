package domain

import "time"

// RunStatus is the lifecycle state of an ingestion run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the persisted record of one ingestion.
type Run struct {
	ID         string
	Collection string
	Source     string
	Status     RunStatus

	StartedAt   time.Time
	CompletedAt *time.Time

	// Passages counts main-pass passages, excluding summaries.
	Passages  int
	Summaries int
	Batches   int
	Warnings  int

	// IndexPath is where the lexical index was written, if it was.
	IndexPath string

	// Error holds the fatal error message for failed runs.
	Error string
}

// Duration returns how long the run took, or how long it has been running.
func (r Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IngestReport summarises the outcome of an ingestion.
type IngestReport struct {
	Run Run

	// Points is the number of points upserted, summaries included.
	Points int

	// IndexEntries is the number of ids in the lexical index, 0 if disabled.
	IndexEntries int

	// Warnings are the recovered failures, in the order they occurred.
	Warnings []Warning
}

// IngestProgress reports batch progress to driving adapters.
type IngestProgress struct {
	Stage   string
	Done    int
	Total   int
	Message string
}

// Ingest stages reported through IngestProgress.
const (
	StageLoading   = "loading"
	StageEnriching = "enriching"
	StageUpserting = "upserting"
	StageIndexing  = "indexing"
	StageDone      = "done"
)
