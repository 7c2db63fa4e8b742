package pgvector

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// openTestStore connects to SERCHA_TEST_PGVECTOR_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SERCHA_TEST_PGVECTOR_DSN")
	if dsn == "" {
		t.Skip("SERCHA_TEST_PGVECTOR_DSN not set")
	}
	store, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestDecodePayload(t *testing.T) {
	payload, err := decodePayload([]byte(`{"chunk_text":"x","chunk_index":3,"neighbor_prev":null}`))
	require.NoError(t, err)
	assert.Equal(t, "x", payload["chunk_text"])
	assert.Equal(t, float64(3), payload["chunk_index"])
	assert.Contains(t, payload, "neighbor_prev")

	payload, err = decodePayload(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	_, err = decodePayload([]byte("{"))
	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	name := "test_" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = store.db.ExecContext(ctx, `DELETE FROM sercha_collections WHERE name = $1`, name)
	})

	require.NoError(t, store.EnsureCollection(ctx, name, 3, domain.DistanceCosine))
	require.NoError(t, store.EnsureCollection(ctx, name, 3, domain.DistanceCosine))
	assert.ErrorIs(t, store.EnsureCollection(ctx, name, 4, domain.DistanceCosine), domain.ErrDimensionMismatch)

	points := make([]domain.StoredPoint, 5)
	for i := range points {
		points[i] = domain.StoredPoint{
			ID:      fmt.Sprintf("p-%d", i),
			Vector:  []float32{1, float32(i), 0},
			Payload: map[string]any{domain.PayloadTextKey: fmt.Sprintf("chunk %d", i)},
		}
	}
	require.NoError(t, store.Upsert(ctx, name, points))
	require.NoError(t, store.Upsert(ctx, name, points))

	n, err := store.Count(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	var seen int
	var cursor domain.Cursor
	for {
		records, next, err := store.Scroll(ctx, name, 2, cursor)
		require.NoError(t, err)
		seen += len(records)
		if next.Done() {
			break
		}
		cursor = next
	}
	assert.Equal(t, 5, seen)

	err = store.Upsert(ctx, name, []domain.StoredPoint{{ID: "bad", Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = store.Count(ctx, "missing_"+name)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
