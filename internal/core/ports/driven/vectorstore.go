package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// VectorStore persists stored points and exposes a paginated sweep.
//
// Implementations may include:
//   - Qdrant over REST
//   - SQLite (local file)
//   - chromem-go (embedded, persisted to a file)
//   - PostgreSQL with pgvector
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	// It is a no-op for an existing collection of the same size and returns
	// domain.ErrDimensionMismatch for an existing collection of another size.
	EnsureCollection(ctx context.Context, name string, size int, distance domain.Distance) error

	// Upsert writes points. Existing ids are overwritten.
	Upsert(ctx context.Context, collection string, points []domain.StoredPoint) error

	// Scroll returns up to limit records after cursor, plus the next cursor.
	// An empty next cursor means the sweep is complete.
	Scroll(ctx context.Context, collection string, limit int, cursor domain.Cursor) ([]domain.Record, domain.Cursor, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}

// LexicalIndexWriter persists the id to text lexical index.
type LexicalIndexWriter interface {
	// Write stores the whole index at path, replacing any previous file.
	Write(ctx context.Context, path string, index map[string]string) error
}
