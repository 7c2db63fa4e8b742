package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// UpsertOptions configures one UpsertAll call.
type UpsertOptions struct {
	BatchSize int
	Distance  domain.Distance
	IDMode    domain.IDMode

	// Progress is called after every committed batch. May be nil.
	Progress func(done, total int)
}

// UpsertResult counts what UpsertAll committed.
type UpsertResult struct {
	Points  int
	Batches int
}

// BatchUpserter embeds passages and writes them to a vector store in
// fixed-size batches. Batches run strictly one after another.
type BatchUpserter struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
}

// NewBatchUpserter creates a batch upserter.
func NewBatchUpserter(embedder driven.EmbeddingService, store driven.VectorStore) *BatchUpserter {
	return &BatchUpserter{
		embedder: embedder,
		store:    store,
	}
}

// UpsertAll embeds and upserts every passage. The collection is ensured
// once before the first upsert. On failure the returned result counts the
// batches already committed; they are not rolled back.
func (u *BatchUpserter) UpsertAll(
	ctx context.Context,
	collection string,
	passages []domain.Passage,
	opts UpsertOptions,
) (UpsertResult, error) {
	var result UpsertResult

	if opts.BatchSize <= 0 {
		return result, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrConfiguration, opts.BatchSize)
	}
	if opts.Distance == "" {
		opts.Distance = domain.DistanceCosine
	}
	if u.embedder == nil {
		return result, domain.ErrEmbeddingUnavailable
	}
	if len(passages) == 0 {
		return result, nil
	}

	total := (len(passages) + opts.BatchSize - 1) / opts.BatchSize
	dim := u.embedder.Dimensions()
	ensured := false

	if dim > 0 {
		if err := u.store.EnsureCollection(ctx, collection, dim, opts.Distance); err != nil {
			return result, fmt.Errorf("ensure collection %s: %w", collection, err)
		}
		ensured = true
	}

	for b := 0; b < total; b++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := b * opts.BatchSize
		end := min(start+opts.BatchSize, len(passages))
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}

		vectors, err := u.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("%w: batch %d: %w", domain.ErrEmbeddingBatch, b, err)
		}
		if len(vectors) != len(batch) {
			return result, fmt.Errorf("%w: batch %d: got %d embeddings for %d passages",
				domain.ErrEmbeddingBatch, b, len(vectors), len(batch))
		}

		// The first vector fixes the size when the model's size is unknown.
		if !ensured {
			dim = len(vectors[0])
			if err := u.store.EnsureCollection(ctx, collection, dim, opts.Distance); err != nil {
				return result, fmt.Errorf("ensure collection %s: %w", collection, err)
			}
			ensured = true
		}

		points := make([]domain.StoredPoint, len(batch))
		for i, p := range batch {
			if len(vectors[i]) != dim {
				return result, fmt.Errorf("%w: batch %d: %w", domain.ErrEmbeddingBatch, b,
					fmt.Errorf("%w: passage %d has %d dimensions, collection has %d",
						domain.ErrDimensionMismatch, start+i, len(vectors[i]), dim))
			}
			id, err := PointID(p.Metadata, p.Content, opts.IDMode)
			if err != nil {
				return result, fmt.Errorf("%w: batch %d: %w", domain.ErrUpsertBatch, b, err)
			}
			points[i] = domain.StoredPoint{
				ID:      id,
				Vector:  vectors[i],
				Payload: p.Payload(),
			}
		}

		if err := u.store.Upsert(ctx, collection, points); err != nil {
			return result, fmt.Errorf("%w: batch %d: %w", domain.ErrUpsertBatch, b, err)
		}

		result.Points += len(points)
		result.Batches++
		logger.Debug("Upserted batch %d/%d (%d points)", b+1, total, len(points))
		if opts.Progress != nil {
			opts.Progress(b+1, total)
		}
	}

	return result, nil
}
