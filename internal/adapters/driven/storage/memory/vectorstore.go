package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	size     int
	distance domain.Distance
	points   map[string]domain.StoredPoint
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Scroll pages through ids in lexical order; the cursor is the last id
// returned.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if it does not exist.
func (s *VectorStore) EnsureCollection(_ context.Context, name string, size int, distance domain.Distance) error {
	if size <= 0 {
		return fmt.Errorf("%w: collection size must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.size != size {
			return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, name, c.size, size)
		}
		return nil
	}
	s.collections[name] = &collection{
		size:     size,
		distance: distance,
		points:   make(map[string]domain.StoredPoint),
	}
	return nil
}

// Upsert writes points, overwriting existing ids.
func (s *VectorStore) Upsert(_ context.Context, name string, points []domain.StoredPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	for _, p := range points {
		if len(p.Vector) != c.size {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", domain.ErrDimensionMismatch, p.ID, len(p.Vector), c.size)
		}
	}
	for _, p := range points {
		c.points[p.ID] = domain.StoredPoint{
			ID:      p.ID,
			Vector:  slices.Clone(p.Vector),
			Payload: maps.Clone(p.Payload),
		}
	}
	return nil
}

// Scroll returns up to limit records with ids after cursor.
func (s *VectorStore) Scroll(
	_ context.Context,
	name string,
	limit int,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, "", fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}

	ids := slices.Sorted(maps.Keys(c.points))
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(ids, string(cursor))
		if start < len(ids) && ids[start] == string(cursor) {
			start++
		}
	}
	end := min(start+limit, len(ids))

	records := make([]domain.Record, 0, end-start)
	for _, id := range ids[start:end] {
		records = append(records, domain.Record{ID: id, Payload: maps.Clone(c.points[id].Payload)})
	}

	var next domain.Cursor
	if end < len(ids) {
		next = domain.Cursor(ids[end-1])
	}
	return records, next, nil
}

// Count returns the number of points in the collection.
func (s *VectorStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return len(c.points), nil
}

// Point returns a stored point, for inspection in tests and dry runs.
func (s *VectorStore) Point(name, id string) (domain.StoredPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return domain.StoredPoint{}, false
	}
	p, ok := c.points[id]
	return p, ok
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
