// Package messages defines Bubbletea message types for the progress display.
package messages

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Progress carries one pipeline progress report.
type Progress struct {
	domain.IngestProgress
}

// Finished is sent once when the ingestion returns.
type Finished struct {
	Report *domain.IngestReport
	Err    error
}
