package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ensure RunService implements the interface.
var _ driving.RunService = (*RunService)(nil)

// DefaultRunListLimit is used when List is called with a non-positive limit.
const DefaultRunListLimit = 20

// RunService exposes ingestion history from a RunStore.
type RunService struct {
	store driven.RunStore
}

// NewRunService creates a run service.
func NewRunService(store driven.RunStore) *RunService {
	return &RunService{store: store}
}

// List returns the most recent runs first.
func (s *RunService) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id.
func (s *RunService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	if id == "" {
		return nil, fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}
