package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure IndexWriter implements the interface.
var _ driven.LexicalIndexWriter = (*IndexWriter)(nil)

// IndexWriter writes the lexical index as a JSON object of id to text.
// Relative paths are resolved against Dir.
type IndexWriter struct {
	dir string
}

// NewIndexWriter creates an index writer rooted at dir. An empty dir means
// the working directory.
func NewIndexWriter(dir string) *IndexWriter {
	return &IndexWriter{dir: dir}
}

// Write replaces the file at path atomically: the index goes to a temp file
// in the same directory, which is then renamed over the target.
func (w *IndexWriter) Write(ctx context.Context, path string, index map[string]string) error {
	if path == "" {
		return fmt.Errorf("%w: index path is empty", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsAbs(path) && w.dir != "" {
		path = filepath.Join(w.dir, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	if index == nil {
		index = map[string]string{}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
