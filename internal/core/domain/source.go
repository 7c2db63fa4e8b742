package domain

import (
	"os"
	"strings"
)

// SourceKind identifies how a source reference is resolved.
type SourceKind string

// Available source kinds.
const (
	// SourceKindURL is an http or https URL.
	SourceKindURL SourceKind = "url"

	// SourceKindFile is a single local file.
	SourceKindFile SourceKind = "file"

	// SourceKindDirectory is a local directory expanded into its files.
	SourceKindDirectory SourceKind = "directory"

	// SourceKindS3 is an object addressed as s3://bucket/key.
	SourceKindS3 SourceKind = "s3"

	// SourceKindGitHub is a repository or subtree addressed as
	// github://owner/repo[/path][?ref=branch], expanded into its files.
	SourceKindGitHub SourceKind = "github"

	// SourceKindGitHubFile is one file inside a repository.
	SourceKindGitHubFile SourceKind = "github_file"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindURL, SourceKindFile, SourceKindDirectory, SourceKindS3,
		SourceKindGitHub, SourceKindGitHubFile:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// GitHubScheme prefixes repository sources.
const GitHubScheme = "github://"

// Source is a reference to content to ingest.
type Source struct {
	// Ref is the path, URL, s3:// or github:// URI exactly as given.
	Ref string

	// Kind is how Ref is resolved.
	Kind SourceKind
}

// ParseSource classifies a source reference.
// Directories are detected with a stat call; everything else that is not
// a URL or S3 URI is treated as a file.
func ParseSource(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, ErrInvalidInput
	}

	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Source{Ref: ref, Kind: SourceKindURL}, nil
	case strings.HasPrefix(lower, "s3://"):
		if _, _, ok := SplitS3URI(ref); !ok {
			return Source{}, ErrInvalidInput
		}
		return Source{Ref: ref, Kind: SourceKindS3}, nil
	case strings.HasPrefix(lower, GitHubScheme):
		if _, _, ok := strings.Cut(ref[len(GitHubScheme):], "/"); !ok {
			return Source{}, ErrInvalidInput
		}
		return Source{Ref: ref, Kind: SourceKindGitHub}, nil
	}

	if info, err := os.Stat(ref); err == nil && info.IsDir() {
		return Source{Ref: ref, Kind: SourceKindDirectory}, nil
	}
	return Source{Ref: ref, Kind: SourceKindFile}, nil
}

// IsURL returns true for http(s) sources.
func (s Source) IsURL() bool {
	return s.Kind == SourceKindURL
}

// Extension returns the lower-cased file extension of the reference,
// including the dot, or "" if there is none.
func (s Source) Extension() string {
	ref := s.Ref
	if s.Kind == SourceKindURL || s.Kind == SourceKindGitHub || s.Kind == SourceKindGitHubFile {
		if i := strings.IndexAny(ref, "?#"); i >= 0 {
			ref = ref[:i]
		}
	}
	slash := strings.LastIndexAny(ref, `/\`)
	dot := strings.LastIndex(ref, ".")
	if dot <= slash+1 || dot == len(ref)-1 {
		return ""
	}
	return strings.ToLower(ref[dot:])
}

// SplitS3URI splits s3://bucket/key into bucket and key.
func SplitS3URI(uri string) (bucket, key string, ok bool) {
	if len(uri) < len("s3://") || !strings.EqualFold(uri[:5], "s3://") {
		return "", "", false
	}
	rest := uri[5:]
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
