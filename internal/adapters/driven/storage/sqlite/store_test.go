package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func point(id string, vector ...float32) domain.StoredPoint {
	return domain.StoredPoint{
		ID:      id,
		Vector:  vector,
		Payload: map[string]any{domain.PayloadTextKey: "text " + id, "chunk_index": 1},
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	vs := store.VectorStore()
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 2, domain.DistanceCosine))
	require.NoError(t, vs.Upsert(ctx, "docs", []domain.StoredPoint{point("a", 1, 2)}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.VectorStore().Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions, "migrations run once")
}

func TestVectorStore_EnsureCollection(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	require.NoError(t, vs.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine))
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 3, domain.DistanceCosine), "same size is a no-op")

	err := vs.EnsureCollection(ctx, "docs", 4, domain.DistanceCosine)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = vs.EnsureCollection(ctx, "other", 0, domain.DistanceCosine)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_UpsertOverwrites(t *testing.T) {
	store := setupTestStore(t)
	vs := store.VectorStore()
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 2, domain.DistanceCosine))

	require.NoError(t, vs.Upsert(ctx, "docs", []domain.StoredPoint{point("a", 1, 2), point("b", 3, 4)}))
	updated := point("a", 5, 6)
	updated.Payload[domain.PayloadTextKey] = "changed"
	require.NoError(t, vs.Upsert(ctx, "docs", []domain.StoredPoint{updated}))

	n, err := vs.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var blob []byte
	require.NoError(t, store.db.QueryRow(`SELECT vector FROM points WHERE collection = 'docs' AND id = 'a'`).Scan(&blob))
	assert.Equal(t, []float32{5, 6}, bytesToFloat32Slice(blob))

	records, _, err := vs.Scroll(ctx, "docs", 10, "")
	require.NoError(t, err)
	text, ok := records[0].Text()
	require.True(t, ok)
	assert.Equal(t, "changed", text)
}

func TestVectorStore_UpsertRejectsWrongDimensions(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 2, domain.DistanceCosine))

	err := vs.Upsert(ctx, "docs", []domain.StoredPoint{point("a", 1, 2), point("b", 1)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	n, err := vs.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing from the rejected batch is stored")
}

func TestVectorStore_MissingCollection(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	assert.ErrorIs(t, vs.Upsert(ctx, "nope", []domain.StoredPoint{point("a", 1)}), domain.ErrNotFound)
	_, err := vs.Count(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = vs.Scroll(ctx, "nope", 10, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_ScrollPages(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 1, domain.DistanceCosine))

	var points []domain.StoredPoint
	for i := 0; i < 7; i++ {
		points = append(points, point(fmt.Sprintf("id-%d", i), float32(i)))
	}
	require.NoError(t, vs.Upsert(ctx, "docs", points))

	var seen []string
	var cursor domain.Cursor
	pages := 0
	for {
		records, next, err := vs.Scroll(ctx, "docs", 3, cursor)
		require.NoError(t, err)
		pages++
		for _, r := range records {
			seen = append(seen, r.ID)
		}
		if next.Done() {
			break
		}
		cursor = next
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"id-0", "id-1", "id-2", "id-3", "id-4", "id-5", "id-6"}, seen)
}

func TestVectorStore_ScrollExactPage(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	require.NoError(t, vs.EnsureCollection(ctx, "docs", 1, domain.DistanceCosine))
	require.NoError(t, vs.Upsert(ctx, "docs", []domain.StoredPoint{point("a", 1), point("b", 2)}))

	records, next, err := vs.Scroll(ctx, "docs", 2, "")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.True(t, next.Done(), "no extra empty page")
}

func TestRunStore_SaveGetList(t *testing.T) {
	rs := setupTestStore(t).RunStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, rs.Save(ctx, domain.Run{
			ID:         fmt.Sprintf("run-%d", i),
			Collection: "docs",
			Source:     "/data",
			Status:     domain.RunStatusRunning,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
		}))
	}

	done := start.Add(90 * time.Minute)
	require.NoError(t, rs.Save(ctx, domain.Run{
		ID:          "run-1",
		Collection:  "docs",
		Source:      "/data",
		Status:      domain.RunStatusCompleted,
		StartedAt:   start.Add(time.Hour),
		CompletedAt: &done,
		Passages:    12,
		Summaries:   3,
		Batches:     2,
		Warnings:    1,
		IndexPath:   "docs_bm25_index.json",
	}))

	run, err := rs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, 12, run.Passages)
	assert.Equal(t, "docs_bm25_index.json", run.IndexPath)
	require.NotNil(t, run.CompletedAt)
	assert.True(t, done.Equal(*run.CompletedAt))

	runs, err := rs.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)

	all, err := rs.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = rs.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
