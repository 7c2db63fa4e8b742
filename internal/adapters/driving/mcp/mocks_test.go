package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report *domain.IngestReport
	err    error
	got    domain.IngestOptions
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	opts domain.IngestOptions,
	_ driving.ProgressFunc,
) (*domain.IngestReport, error) {
	m.got = opts
	return m.report, m.err
}

func (m *mockIngestService) Status(_ context.Context, collection string) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{Collection: collection}, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	result *driving.IndexResult
	err    error
}

func (m *mockIndexService) BuildIndex(_ context.Context, _, _ string) (*driving.IndexResult, error) {
	return m.result, m.err
}

// mockRunService is a mock implementation of driving.RunService.
type mockRunService struct {
	runs []domain.Run
	err  error
}

func (m *mockRunService) List(_ context.Context, limit int) ([]domain.Run, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], m.err
	}
	return m.runs, m.err
}

func (m *mockRunService) Get(_ context.Context, id string) (*domain.Run, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func validPorts() *Ports {
	return &Ports{
		Ingest: &mockIngestService{},
		Index:  &mockIndexService{},
		Runs:   &mockRunService{},
	}
}
