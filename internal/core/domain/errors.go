package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source kind or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summary generation is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion cannot run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrConfiguration indicates invalid chunking or batching parameters.
	// Always raised before any work starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrSourceUnreadable indicates no loader tier could produce text for a source.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrNoDocuments indicates loading succeeded but produced no passages.
	ErrNoDocuments = errors.New("no documents found")

	// ErrEmbeddingBatch indicates an embedding call for a batch failed.
	// Earlier batches remain committed.
	ErrEmbeddingBatch = errors.New("embedding batch failed")

	// ErrUpsertBatch indicates a vector store upsert for a batch failed.
	// Earlier batches remain committed.
	ErrUpsertBatch = errors.New("upsert batch failed")

	// ErrDimensionMismatch indicates a vector does not match the collection size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrSegmenterUnavailable indicates a segmenter cannot run in this process,
	// for example because its tokeniser could not be loaded.
	ErrSegmenterUnavailable = errors.New("segmenter unavailable")

	// Warning Errors. These are recovered locally and reported as Warnings.

	// ErrExtraction indicates a single loader tier failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrSummaryItem indicates a single summary generation call failed.
	ErrSummaryItem = errors.New("summary generation failed")

	// ErrIndexWrite indicates the lexical sidecar index could not be written.
	ErrIndexWrite = errors.New("lexical index write failed")

	// ErrQuality indicates a passage falls outside the expected token band.
	ErrQuality = errors.New("passage size out of bounds")

	// ErrRunInProgress indicates an ingestion is already running for a collection.
	ErrRunInProgress = errors.New("run in progress")
)
