package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh      *gh.Client
	limiter *RateLimiter
}

// NewClient creates a client. An empty token makes anonymous requests,
// which GitHub limits to 60 per hour. baseURL overrides the API endpoint
// for GitHub Enterprise; empty means api.github.com.
func NewClient(ctx context.Context, token, baseURL string, perSecond float64) (*Client, error) {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		httpClient.Timeout = DefaultTimeout
	}

	client := gh.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: github base url: %w", domain.ErrConfiguration, err)
		}
		client.BaseURL = u
	}
	return &Client{gh: client, limiter: NewRateLimiter(perSecond)}, nil
}

// DefaultBranch returns the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.update(resp)
	if err != nil {
		return "", c.wrapError(err, "get repo")
	}
	return repository.GetDefaultBranch(), nil
}

// Tree returns every entry of the tree at branch, recursively.
func (c *Client) Tree(ctx context.Context, owner, repo, branch string) (*gh.Tree, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, branch, true)
	c.update(resp)
	if err != nil {
		return nil, c.wrapError(err, "get tree")
	}
	return tree, nil
}

// File returns the contents of a file. Files over 1MB, which the contents
// API does not inline, are downloaded separately.
func (c *Client) File(ctx context.Context, ref Ref) ([]byte, *gh.RepositoryContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref.Branch}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	c.update(resp)
	if err != nil {
		return nil, nil, c.wrapError(err, "get contents")
	}
	if file == nil {
		return nil, nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, ref.Path)
	}

	if file.GetEncoding() != "none" {
		text, err := file.GetContent()
		if err != nil {
			return nil, nil, fmt.Errorf("decode content: %w", err)
		}
		return []byte(text), file, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}
	rc, resp, err := c.gh.Repositories.DownloadContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	c.update(resp)
	if err != nil {
		return nil, nil, c.wrapError(err, "download contents")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read contents: %w", err)
	}
	return data, file, nil
}

func (c *Client) update(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}

// wrapError maps go-github errors onto domain errors.
func (c *Client) wrapError(err error, operation string) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: rate limited until %s: %w",
			operation, rateErr.Rate.Reset.Format(time.RFC3339), err)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %s", operation, domain.ErrNotFound, ghErr.Message)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
