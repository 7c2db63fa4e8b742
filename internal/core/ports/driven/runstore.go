package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// RunStore persists ingestion run history.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.Run) error

	// Get retrieves a run by id. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns the most recent runs first, at most limit.
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
