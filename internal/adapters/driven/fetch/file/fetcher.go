// Package file provides the local filesystem fetcher and directory lister.
package file

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Fetcher implements the interfaces.
var (
	_ driven.Fetcher = (*Fetcher)(nil)
	_ driven.Lister  = (*Fetcher)(nil)
)

// DefaultMaxFileSize is the largest file read into memory (100 MiB).
const DefaultMaxFileSize = 100 << 20

// Fetcher reads local files.
type Fetcher struct {
	maxSize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxFileSize sets the largest file the fetcher reads.
func WithMaxFileSize(n int64) Option {
	return func(f *Fetcher) {
		f.maxSize = n
	}
}

// New creates a file fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{maxSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the fetcher name.
func (f *Fetcher) Name() string {
	return "file"
}

// Accepts reports whether the source is a local file.
func (f *Fetcher) Accepts(src domain.Source) bool {
	return src.Kind == domain.SourceKindFile
}

// Fetch reads the file into memory.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(src.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrSourceUnreadable, src.Ref)
	}
	if f.maxSize > 0 && info.Size() > f.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrSourceUnreadable, src.Ref, info.Size(), f.maxSize)
	}

	content, err := os.ReadFile(src.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}

	path, err := filepath.Abs(src.Ref)
	if err != nil {
		path = src.Ref
	}

	return &domain.RawDocument{
		Source:   src,
		URI:      src.Ref,
		MIMEType: detectMIMEType(src.Ref),
		Content:  content,
		Path:     path,
		Metadata: map[string]any{
			"size":     info.Size(),
			"modified": info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		},
	}, nil
}

// List walks the directory and returns its visible regular files in
// lexical order. Hidden files and anything below a hidden directory are
// skipped.
func (f *Fetcher) List(ctx context.Context, dir domain.Source) ([]domain.Source, error) {
	var out []domain.Source
	err := filepath.WalkDir(dir.Ref, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(dir.Ref, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, domain.Source{Ref: path, Kind: domain.SourceKindFile})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrSourceUnreadable, dir.Ref, err)
	}
	return out, nil
}

// isHidden checks if any component of the path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// textTypes covers extensions the platform MIME table does not know or
// reports inconsistently.
var textTypes = map[string]string{
	".md":       domain.MIMETypeMarkdown,
	".markdown": domain.MIMETypeMarkdown,
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".rst":      "text/x-rst",
}

// detectMIMEType returns the MIME type for a file name, without parameters.
func detectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return domain.MIMETypePlain
	}
	if mt, ok := textTypes[ext]; ok {
		return mt
	}
	if mt := domain.MIMETypeForExtension(ext); mt != "" {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		mt, _, _ = strings.Cut(mt, ";")
		return strings.TrimSpace(mt)
	}
	return domain.MIMETypeOctet
}
