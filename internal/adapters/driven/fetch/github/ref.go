package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Ref addresses a path inside a repository.
type Ref struct {
	Owner string
	Repo  string

	// Path is slash separated and relative to the repository root.
	// Empty means the whole repository.
	Path string

	// Branch is a branch, tag or commit. Empty means the default branch.
	Branch string
}

// ParseRef parses github://owner/repo[/path][?ref=branch].
func ParseRef(s string) (Ref, error) {
	if len(s) < len(domain.GitHubScheme) || !strings.EqualFold(s[:len(domain.GitHubScheme)], domain.GitHubScheme) {
		return Ref{}, fmt.Errorf("%w: not a github source: %q", domain.ErrInvalidInput, s)
	}
	rest := s[len(domain.GitHubScheme):]

	var query string
	rest, query, _ = strings.Cut(rest, "?")

	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: github source needs owner and repo: %q", domain.ErrInvalidInput, s)
	}

	ref := Ref{Owner: parts[0], Repo: parts[1]}
	if len(parts) == 3 {
		ref.Path = strings.Trim(parts[2], "/")
	}
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return Ref{}, fmt.Errorf("%w: github source query: %w", domain.ErrInvalidInput, err)
		}
		ref.Branch = values.Get("ref")
	}
	return ref, nil
}

// String formats the reference in the form ParseRef accepts.
func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(domain.GitHubScheme)
	b.WriteString(r.Owner)
	b.WriteByte('/')
	b.WriteString(r.Repo)
	if r.Path != "" {
		b.WriteByte('/')
		b.WriteString(r.Path)
	}
	if r.Branch != "" {
		b.WriteString("?ref=")
		b.WriteString(url.QueryEscape(r.Branch))
	}
	return b.String()
}

// HTMLURL returns the browser URL of the path.
func (r Ref) HTMLURL() string {
	branch := r.Branch
	if branch == "" {
		branch = "HEAD"
	}
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", r.Owner, r.Repo, branch, r.Path)
}

// contains reports whether path lies inside the subtree r names.
func (r Ref) contains(path string) bool {
	if r.Path == "" {
		return true
	}
	return path == r.Path || strings.HasPrefix(path, r.Path+"/")
}
