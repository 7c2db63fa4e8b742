package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestExtractRunID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid", "sercha-ingest://runs/run-123", "run-123"},
		{"wrong scheme", "sercha://runs/run-123", ""},
		{"nested", "sercha-ingest://runs/a/b", ""},
		{"list uri", "sercha-ingest://runs", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractRunID(tt.uri))
		})
	}
}

func TestServer_RunResources(t *testing.T) {
	ctx := context.Background()
	ports := validPorts()
	ports.Runs = &mockRunService{runs: []domain.Run{{ID: "r1", Collection: "docs"}}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "sercha-ingest://runs"}}
		res, err := server.handleRunsResource(ctx, req)
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Contains(t, res.Contents[0].Text, `"id": "r1"`)
	})

	t.Run("single", func(t *testing.T) {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "sercha-ingest://runs/r1"}}
		res, err := server.handleRunResource(ctx, req)
		require.NoError(t, err)
		assert.Contains(t, res.Contents[0].Text, `"collection": "docs"`)
	})

	t.Run("missing", func(t *testing.T) {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "sercha-ingest://runs/nope"}}
		_, err := server.handleRunResource(ctx, req)
		assert.Error(t, err)
	})
}
