// Package github fetches repository files for github:// sources.
package github

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Fetcher implements the interfaces.
var (
	_ driven.Fetcher = (*Fetcher)(nil)
	_ driven.Lister  = (*Fetcher)(nil)
)

// DefaultMaxFileSize skips blobs larger than this many bytes.
const DefaultMaxFileSize = 10 << 20

// Config holds the GitHub connection settings.
type Config struct {
	// Token is a personal access or OAuth token. Optional.
	Token string `yaml:"token" toml:"token"`

	// BaseURL points at a GitHub Enterprise API. Optional.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// RequestsPerSecond throttles API calls. Zero selects DefaultRate.
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`

	// MaxFileSize skips larger blobs. Zero selects DefaultMaxFileSize.
	MaxFileSize int `yaml:"max_file_size" toml:"max_file_size"`
}

// Fetcher lists repository trees and downloads their files.
type Fetcher struct {
	client  *Client
	maxSize int
}

// New creates a fetcher.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = DefaultRate
	}
	client, err := NewClient(ctx, cfg.Token, cfg.BaseURL, rps)
	if err != nil {
		return nil, err
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Fetcher{client: client, maxSize: maxSize}, nil
}

// Name returns the fetcher name.
func (f *Fetcher) Name() string {
	return "github"
}

// Accepts reports whether the source is a repository file.
func (f *Fetcher) Accepts(src domain.Source) bool {
	return src.Kind == domain.SourceKindGitHubFile
}

// List expands a repository or subtree into its files in path order.
// Binary and oversized blobs are skipped. A path naming a single file
// yields that file.
func (f *Fetcher) List(ctx context.Context, src domain.Source) ([]domain.Source, error) {
	ref, err := ParseRef(src.Ref)
	if err != nil {
		return nil, err
	}

	if ref.Branch == "" {
		branch, err := f.client.DefaultBranch(ctx, ref.Owner, ref.Repo)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
		}
		ref.Branch = branch
	}

	tree, err := f.client.Tree(ctx, ref.Owner, ref.Repo, ref.Branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	if tree.GetTruncated() {
		logger.Warn("Tree of %s/%s is truncated; some files will be missing", ref.Owner, ref.Repo)
	}

	var files []domain.Source
	for _, entry := range tree.Entries {
		p := entry.GetPath()
		switch {
		case entry.GetType() != "blob", !ref.contains(p):
			continue
		case isBinaryExtension(p):
			logger.Debug("Skipping binary file %s", p)
			continue
		case entry.GetSize() > f.maxSize:
			logger.Debug("Skipping %s: %d bytes exceeds %d", p, entry.GetSize(), f.maxSize)
			continue
		}

		file := ref
		file.Path = p
		files = append(files, domain.Source{Ref: file.String(), Kind: domain.SourceKindGitHubFile})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Ref < files[j].Ref })
	return files, nil
}

// Fetch downloads one file.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*domain.RawDocument, error) {
	ref, err := ParseRef(src.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	if ref.Path == "" {
		return nil, fmt.Errorf("%w: %s names a repository, not a file", domain.ErrSourceUnreadable, src.Ref)
	}

	data, file, err := f.client.File(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}

	meta := map[string]any{
		"id":    file.GetSHA(),
		"owner": ref.Owner,
		"repo":  ref.Repo,
		"path":  ref.Path,
		"url":   ref.HTMLURL(),
	}
	if ref.Branch != "" {
		meta["branch"] = ref.Branch
	}

	return &domain.RawDocument{
		Source:   src,
		URI:      src.Ref,
		MIMEType: mimeType(ref.Path),
		Content:  data,
		Metadata: meta,
	}, nil
}

// mimeType guesses the type from the extension. Source code and other
// unknown text files are treated as plain text.
func mimeType(p string) string {
	if t := domain.MIMETypeForExtension(strings.ToLower(path.Ext(p))); t != "" {
		return t
	}
	return domain.MIMETypePlain
}

var binaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
	".xls": true, ".xlsx": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".pyc": true, ".pyo": true, ".class": true, ".o": true, ".a": true,
}

// isBinaryExtension reports extensions no extractor can read. Documents
// such as PDF and DOCX are kept.
func isBinaryExtension(p string) bool {
	return binaryExtensions[strings.ToLower(path.Ext(p))]
}
