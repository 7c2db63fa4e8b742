// Package mcp provides an MCP (Model Context Protocol) server adapter that
// lets AI assistants ingest sources and inspect ingestion history.
package mcp

import "errors"

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("mcp: ingest service is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
