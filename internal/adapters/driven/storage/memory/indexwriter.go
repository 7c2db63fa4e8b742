package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure IndexWriter implements the interface.
var _ driven.LexicalIndexWriter = (*IndexWriter)(nil)

// IndexWriter keeps written lexical indexes in memory, keyed by path.
type IndexWriter struct {
	mu      sync.RWMutex
	indexes map[string]map[string]string
}

// NewIndexWriter creates a new in-memory index writer.
func NewIndexWriter() *IndexWriter {
	return &IndexWriter{
		indexes: make(map[string]map[string]string),
	}
}

// Write replaces the index stored at path.
func (w *IndexWriter) Write(_ context.Context, path string, index map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indexes[path] = maps.Clone(index)
	return nil
}

// Index returns the index last written to path.
func (w *IndexWriter) Index(path string) (map[string]string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	idx, ok := w.indexes[path]
	return idx, ok
}
