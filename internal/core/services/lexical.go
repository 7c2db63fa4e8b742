package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure LexicalIndexBuilder implements the interface.
var _ driving.IndexService = (*LexicalIndexBuilder)(nil)

// LexicalIndexBuilder sweeps a collection and writes the id to text map
// used by the keyword side of hybrid search.
type LexicalIndexBuilder struct {
	store    driven.VectorStore
	writer   driven.LexicalIndexWriter
	pageSize int
}

// LexicalOption configures a LexicalIndexBuilder.
type LexicalOption func(*LexicalIndexBuilder)

// WithPageSize sets the scroll page size.
func WithPageSize(n int) LexicalOption {
	return func(b *LexicalIndexBuilder) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

// NewLexicalIndexBuilder creates a builder. The writer may be nil, in which
// case Write always reports an index_write warning.
func NewLexicalIndexBuilder(
	store driven.VectorStore,
	writer driven.LexicalIndexWriter,
	opts ...LexicalOption,
) *LexicalIndexBuilder {
	b := &LexicalIndexBuilder{
		store:    store,
		writer:   writer,
		pageSize: domain.DefaultScrollPageSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build scrolls the whole collection and maps every point id to its
// chunk_text. Points without a non-empty string text are skipped.
func (b *LexicalIndexBuilder) Build(ctx context.Context, collection string) (map[string]string, error) {
	index := make(map[string]string)
	var cursor domain.Cursor

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, next, err := b.store.Scroll(ctx, collection, b.pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("scroll %s page %d: %w", collection, page, err)
		}
		for _, r := range records {
			if text, ok := r.Text(); ok {
				index[r.ID] = text
			}
		}
		if len(records) == 0 || next.Done() {
			break
		}
		if next == cursor {
			return nil, fmt.Errorf("scroll %s page %d: store returned the same cursor twice", collection, page)
		}
		cursor = next
	}

	logger.Debug("Lexical index for %s has %d entries", collection, len(index))
	return index, nil
}

// Write persists the index. An empty path selects the collection default.
// A failed write is returned as an index_write warning, never an error.
func (b *LexicalIndexBuilder) Write(
	ctx context.Context,
	collection string,
	index map[string]string,
	path string,
) (string, *domain.Warning) {
	if path == "" {
		path = domain.DefaultLexicalIndexPath(collection)
	}

	var err error
	if b.writer == nil {
		err = fmt.Errorf("no index writer configured")
	} else {
		err = b.writer.Write(ctx, path, index)
	}
	if err != nil {
		w := domain.NewWarning(domain.WarningIndexWrite, collection, path, err)
		return path, &w
	}
	return path, nil
}

// BuildIndex rebuilds the sidecar from the current collection contents.
func (b *LexicalIndexBuilder) BuildIndex(ctx context.Context, collection, path string) (*driving.IndexResult, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", domain.ErrConfiguration)
	}

	index, err := b.Build(ctx, collection)
	if err != nil {
		return nil, err
	}

	path, warning := b.Write(ctx, collection, index, path)
	if warning != nil {
		logger.Warn("%v", *warning)
	} else {
		logger.Info("Lexical index written to %s (%d entries)", path, len(index))
	}
	return &driving.IndexResult{Path: path, Entries: len(index), Warning: warning}, nil
}
