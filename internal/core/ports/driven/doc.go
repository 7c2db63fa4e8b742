// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion to run:
//
//   - Fetcher: Retrieves raw bytes for a file, URL or S3 source
//   - Extractor: Turns raw bytes into text items (one loader tier)
//   - Segmenter: Splits text into bounded passages
//   - EmbeddingService: Generates vector embeddings per batch
//   - VectorStore: Collection management, upsert and paginated scroll
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - LLMService: Text generation. Without it, summaries are disabled.
//   - LexicalIndexWriter: Persists the lexical sidecar. Without it, no index is written.
//   - RunStore: Persists run history. Without it, runs are not recorded.
//   - PromptStore: Customisable prompt templates. Without it, defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor or segmenter package
package driven
