// Package chromem provides an embedded VectorStore on chromem-go,
// optionally persisted to a directory and exported to a single file.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// schemaDocID is a reserved document holding the collection size. chromem
// keeps no readable collection metadata, so the size lives in-band.
const schemaDocID = "\x00schema"

const metaSize = "size"

// Config holds store settings.
type Config struct {
	// Dir persists collections under this directory. Empty keeps them in memory.
	Dir string

	// Compress gzips persisted documents.
	Compress bool

	// ExportPath, when set, receives a full export of the database on Close.
	ExportPath string
}

// Store wraps a chromem DB. Every payload value is stored as a JSON string
// in document metadata and chunk_text doubles as the document content.
type Store struct {
	db         *chromem.DB
	exportPath string
	compress   bool

	// snapshots caches the sorted id list for an in-progress scroll.
	mu        sync.Mutex
	snapshots map[string][]string
}

// New opens or creates the store.
func New(cfg Config) (*Store, error) {
	var db *chromem.DB
	if cfg.Dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Dir, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", cfg.Dir, err)
		}
	}
	return &Store{
		db:         db,
		exportPath: cfg.ExportPath,
		compress:   cfg.Compress,
		snapshots:  make(map[string][]string),
	}, nil
}

// noEmbedding rejects content-only documents; vectors always come from the
// embedding service.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem store expects precomputed embeddings")
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return c, nil
}

// EnsureCollection creates the collection if it does not exist. chromem only
// supports cosine similarity.
func (s *Store) EnsureCollection(ctx context.Context, name string, size int, distance domain.Distance) error {
	if size <= 0 {
		return fmt.Errorf("%w: collection size must be positive", domain.ErrInvalidInput)
	}
	if distance != "" && distance != domain.DistanceCosine {
		return fmt.Errorf("%w: chromem supports only %s distance", domain.ErrConfiguration, domain.DistanceCosine)
	}

	if c := s.db.GetCollection(name, noEmbedding); c != nil {
		existing, err := collectionSize(ctx, c)
		if err != nil {
			return err
		}
		if existing != size {
			return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, name, existing, size)
		}
		return nil
	}

	c, err := s.db.CreateCollection(name, map[string]string{metaSize: strconv.Itoa(size)}, noEmbedding)
	if err != nil {
		return fmt.Errorf("chromem: create collection %s: %w", name, err)
	}
	schema := chromem.Document{
		ID:        schemaDocID,
		Metadata:  map[string]string{metaSize: strconv.Itoa(size)},
		Embedding: unitVector(size),
	}
	if err := c.AddDocument(ctx, schema); err != nil {
		return fmt.Errorf("chromem: write schema for %s: %w", name, err)
	}
	return nil
}

func collectionSize(ctx context.Context, c *chromem.Collection) (int, error) {
	doc, err := c.GetByID(ctx, schemaDocID)
	if err != nil {
		return 0, fmt.Errorf("chromem: collection %s has no schema document: %w", c.Name, err)
	}
	size, err := strconv.Atoi(doc.Metadata[metaSize])
	if err != nil {
		return 0, fmt.Errorf("chromem: collection %s has a bad size: %w", c.Name, err)
	}
	return size, nil
}

// Upsert writes points, overwriting existing ids.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.StoredPoint) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	size, err := collectionSize(ctx, c)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		if len(p.Vector) != size {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", domain.ErrDimensionMismatch, p.ID, len(p.Vector), size)
		}
		meta, err := encodePayload(p.Payload)
		if err != nil {
			return fmt.Errorf("point %s: %w", p.ID, err)
		}
		text, _ := p.Payload[domain.PayloadTextKey].(string)
		docs[i] = chromem.Document{
			ID:        p.ID,
			Metadata:  meta,
			Embedding: slices.Clone(p.Vector),
			Content:   text,
		}
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: add documents: %w", err)
	}

	s.mu.Lock()
	delete(s.snapshots, collection)
	s.mu.Unlock()
	return nil
}

// Scroll pages through documents in id order. The first page takes a
// snapshot of the ids; later pages read from it. The cursor is the last id
// returned.
func (s *Store) Scroll(
	ctx context.Context,
	collection string,
	limit int,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}
	c, err := s.collection(collection)
	if err != nil {
		return nil, "", err
	}

	ids, err := s.ids(ctx, c, cursor.Done())
	if err != nil {
		return nil, "", err
	}

	start := 0
	if !cursor.Done() {
		start = sort.SearchStrings(ids, string(cursor))
		if start < len(ids) && ids[start] == string(cursor) {
			start++
		}
	}
	end := min(start+limit, len(ids))

	records := make([]domain.Record, 0, end-start)
	for _, id := range ids[start:end] {
		doc, err := c.GetByID(ctx, id)
		if err != nil {
			// Deleted since the snapshot.
			continue
		}
		payload, err := decodePayload(doc.Metadata)
		if err != nil {
			return nil, "", fmt.Errorf("point %s: %w", id, err)
		}
		records = append(records, domain.Record{ID: id, Payload: payload})
	}

	if end >= len(ids) {
		s.mu.Lock()
		delete(s.snapshots, c.Name)
		s.mu.Unlock()
		return records, "", nil
	}
	return records, domain.Cursor(ids[end-1]), nil
}

// ids returns the sorted document ids, excluding the schema document.
// chromem has no listing API, so ids are gathered with a query that
// returns every document.
func (s *Store) ids(ctx context.Context, c *chromem.Collection, fresh bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids, ok := s.snapshots[c.Name]; ok && !fresh {
		return ids, nil
	}

	size, err := collectionSize(ctx, c)
	if err != nil {
		return nil, err
	}
	results, err := c.QueryEmbedding(ctx, unitVector(size), c.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: list documents: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.ID != schemaDocID {
			ids = append(ids, r.ID)
		}
	}
	sort.Strings(ids)
	s.snapshots[c.Name] = ids
	return ids, nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(_ context.Context, collection string) (int, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return c.Count() - 1, nil
}

// Export writes the whole database to path.
func (s *Store) Export(path string) error {
	if err := s.db.ExportToFile(path, s.compress, ""); err != nil {
		return fmt.Errorf("chromem: export to %s: %w", path, err)
	}
	return nil
}

// Close exports the database when an export path is configured.
func (s *Store) Close() error {
	if s.exportPath == "" {
		return nil
	}
	logger.Info("Exporting vector database to %s", s.exportPath)
	return s.Export(s.exportPath)
}

func unitVector(size int) []float32 {
	v := make([]float32, size)
	v[0] = 1
	return v
}

func encodePayload(payload map[string]any) (map[string]string, error) {
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode payload key %s: %w", k, err)
		}
		meta[k] = string(b)
	}
	return meta, nil
}

func decodePayload(meta map[string]string) (map[string]any, error) {
	payload := make(map[string]any, len(meta))
	for k, raw := range meta {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode payload key %s: %w", k, err)
		}
		payload[k] = v
	}
	return payload, nil
}
