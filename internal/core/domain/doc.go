// Package domain defines the core business entities for sercha-ingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Passage: A bounded unit of text plus metadata, the unit that is embedded
//   - StoredPoint: The persisted (id, vector, payload) triple in a vector store
//   - Record: One scrolled point as returned by a vector store page
//   - Source: A file, directory, URL or S3 object to ingest
//   - RawDocument: Opaque bytes from a fetcher
//   - Run: The persisted record of one ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
