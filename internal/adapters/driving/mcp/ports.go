package mcp

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Ingest runs the ingestion pipeline.
	Ingest driving.IngestService

	// Index rebuilds lexical sidecar indexes.
	Index driving.IndexService

	// Runs exposes ingestion history. Optional.
	Runs driving.RunService

	// Defaults seeds every ingest_source call; tool arguments override it.
	// A zero value falls back to domain.DefaultIngestOptions.
	Defaults domain.IngestOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
