package domain

import "fmt"

// Default ingestion values.
const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultBatchSize      = 100
	DefaultCollection     = "rag_data"
	DefaultScrollPageSize = 1000
	DefaultConcurrency    = 4

	// SummaryMinChars is the minimum passage length eligible for summarisation.
	SummaryMinChars = 200

	// SectionMaxChars bounds the derived section title.
	SectionMaxChars = 100

	// LexicalIndexSuffix is appended to the collection name for the default
	// lexical index path.
	LexicalIndexSuffix = "_bm25_index.json"
)

// IngestOptions configures a single ingestion run.
type IngestOptions struct {
	// Source is the path, directory, URL or s3:// URI to ingest.
	Source string

	// Collection is the vector store collection.
	Collection string

	// ChunkSize is the segmenter budget in characters (tokens for the token splitter).
	ChunkSize int

	// Overlap is the trailing context carried into the next chunk.
	Overlap int

	// BatchSize is the number of passages per embedding and upsert call.
	BatchSize int

	// Distance is the collection similarity metric.
	Distance Distance

	// IDMode selects deterministic or random point ids.
	IDMode IDMode

	// CrawlDepth follows same-host links from URL sources. 0 disables crawling.
	CrawlDepth int

	// GenerateSummaries enables the summarizer pass.
	GenerateSummaries bool

	// QualityChecks enables the token-band auditor.
	QualityChecks bool

	// BuildIndex enables the lexical sidecar index.
	BuildIndex bool

	// IndexPath overrides the lexical index location.
	IndexPath string

	// Concurrency bounds parallel loads for directory, repository and
	// crawled sources.
	Concurrency int
}

// DefaultIngestOptions returns options matching the CLI defaults.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Collection:  DefaultCollection,
		ChunkSize:   DefaultChunkSize,
		Overlap:     DefaultChunkOverlap,
		BatchSize:   DefaultBatchSize,
		Distance:    DistanceCosine,
		IDMode:      IDModeDeterministic,
		BuildIndex:  true,
		Concurrency: DefaultConcurrency,
	}
}

// Validate checks parameters before any work starts.
func (o IngestOptions) Validate() error {
	switch {
	case o.Source == "":
		return fmt.Errorf("%w: source is required", ErrConfiguration)
	case o.Collection == "":
		return fmt.Errorf("%w: collection is required", ErrConfiguration)
	case o.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, o.ChunkSize)
	case o.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrConfiguration, o.Overlap)
	case o.Overlap >= o.ChunkSize:
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrConfiguration, o.Overlap, o.ChunkSize)
	case o.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrConfiguration, o.BatchSize)
	case !o.Distance.IsValid():
		return fmt.Errorf("%w: unknown distance %q", ErrConfiguration, o.Distance)
	case !o.IDMode.IsValid():
		return fmt.Errorf("%w: unknown id mode %q", ErrConfiguration, o.IDMode)
	case o.CrawlDepth < 0:
		return fmt.Errorf("%w: crawl depth must not be negative", ErrConfiguration)
	}
	return nil
}

// LexicalIndexPath returns IndexPath or the default <collection>_bm25_index.json.
func (o IngestOptions) LexicalIndexPath() string {
	if o.IndexPath != "" {
		return o.IndexPath
	}
	return DefaultLexicalIndexPath(o.Collection)
}

// DefaultLexicalIndexPath returns the default sidecar path for a collection.
func DefaultLexicalIndexPath(collection string) string {
	return collection + LexicalIndexSuffix
}
