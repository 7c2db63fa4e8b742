package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns report", func(t *testing.T) {
		ingest := &mockIngestService{report: &domain.IngestReport{
			Run:          domain.Run{ID: "run-1", Collection: "docs", Passages: 3, Summaries: 1, IndexPath: "docs_bm25_index.json"},
			Points:       4,
			IndexEntries: 4,
			Warnings: []domain.Warning{
				domain.NewWarning(domain.WarningSummaryItem, "a.txt", "gpt", errors.New("timeout")),
			},
		}}
		ports := validPorts()
		ports.Ingest = ingest
		server, err := NewServer(ports)
		require.NoError(t, err)

		overlap := 0
		_, out, err := server.handleIngest(ctx, nil, IngestInput{
			Source: "a.txt", Collection: "docs", ChunkOverlap: &overlap, GenerateSummaries: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "run-1", out.RunID)
		assert.Equal(t, 4, out.Points)
		assert.Equal(t, 1, out.Summaries)
		require.Len(t, out.Warnings, 1)
		assert.Contains(t, out.Warnings[0], "timeout")

		assert.Equal(t, "a.txt", ingest.got.Source)
		assert.Equal(t, "docs", ingest.got.Collection)
		assert.Equal(t, 0, ingest.got.Overlap)
		assert.Equal(t, domain.DefaultChunkSize, ingest.got.ChunkSize)
		assert.True(t, ingest.got.GenerateSummaries)
		assert.True(t, ingest.got.BuildIndex)
	})

	t.Run("configured defaults seed options", func(t *testing.T) {
		ingest := &mockIngestService{report: &domain.IngestReport{}}
		ports := validPorts()
		ports.Ingest = ingest
		ports.Defaults = domain.DefaultIngestOptions()
		ports.Defaults.Collection = "kb"
		ports.Defaults.ChunkSize = 800
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "x", SkipIndex: true})
		require.NoError(t, err)
		assert.Equal(t, "kb", ingest.got.Collection)
		assert.Equal(t, 800, ingest.got.ChunkSize)
		assert.False(t, ingest.got.BuildIndex)
	})

	t.Run("missing source", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("service error", func(t *testing.T) {
		ports := validPorts()
		ports.Ingest = &mockIngestService{err: domain.ErrNoDocuments}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Source: "empty/"})
		assert.ErrorIs(t, err, domain.ErrNoDocuments)
	})
}

func TestServer_handleBuildIndex(t *testing.T) {
	ctx := context.Background()
	w := domain.NewWarning(domain.WarningIndexWrite, "docs", "x.json", errors.New("read-only"))

	ports := validPorts()
	ports.Index = &mockIndexService{result: &driving.IndexResult{Path: "x.json", Entries: 7, Warning: &w}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleBuildIndex(ctx, nil, IndexInput{Collection: "docs", Path: "x.json"})
	require.NoError(t, err)
	assert.Equal(t, 7, out.Entries)
	assert.Contains(t, out.Warning, "read-only")
}

func TestServer_handleListRuns(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)

	ports := validPorts()
	ports.Runs = &mockRunService{runs: []domain.Run{
		{ID: "r2", Status: domain.RunStatusCompleted, StartedAt: started, CompletedAt: &completed},
		{ID: "r1", Status: domain.RunStatusFailed, StartedAt: started, Error: "boom"},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleListRuns(ctx, nil, RunsInput{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "r2", out.Runs[0].ID)
	assert.Equal(t, "2025-06-01T12:01:00Z", out.Runs[0].CompletedAt)

	_, out, err = server.handleListRuns(ctx, nil, RunsInput{})
	require.NoError(t, err)
	assert.Equal(t, "boom", out.Runs[1].Error)
	assert.Empty(t, out.Runs[1].CompletedAt)
}
