// Package qdrant provides a VectorStore backed by a Qdrant server over its
// REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/httpretry"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultHost    = "localhost"
	DefaultPort    = 6333
	DefaultTimeout = 30 * time.Second
)

// Config holds connection settings. URL wins over Host and Port.
type Config struct {
	URL     string
	Host    string
	Port    int
	APIKey  string
	Timeout time.Duration
}

// BaseURL resolves the server address.
func (c Config) BaseURL() string {
	if c.URL != "" {
		return strings.TrimSuffix(c.URL, "/")
	}
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return "http://" + host + ":" + strconv.Itoa(port)
}

// Store is a minimal Qdrant REST client.
type Store struct {
	client  *httpretry.Client
	baseURL string
	apiKey  string
}

// New creates a Qdrant store. No request is made until first use.
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		client:  httpretry.New(&http.Client{Timeout: timeout}, httpretry.WithMaxRetries(3)),
		baseURL: cfg.BaseURL(),
		apiKey:  cfg.APIKey,
	}
}

// apiError is returned for non-2xx responses.
type apiError struct {
	method string
	path   string
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d: %s", e.method, e.path, e.status, e.body)
}

// Unwrap maps 404 to domain.ErrNotFound.
func (e *apiError) Unwrap() error {
	if e.status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors json.RawMessage `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// vectorSize reads the size of an unnamed vector config.
func (c collectionInfo) vectorSize() (int, error) {
	var params struct {
		Size int `json:"size"`
	}
	if err := json.Unmarshal(c.Result.Config.Params.Vectors, &params); err != nil || params.Size == 0 {
		return 0, fmt.Errorf("qdrant: collection uses named vectors, which are not supported")
	}
	return params.Size, nil
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, name string, size int, distance domain.Distance) error {
	if size <= 0 {
		return fmt.Errorf("%w: collection size must be positive", domain.ErrInvalidInput)
	}

	var info collectionInfo
	err := s.do(ctx, http.MethodGet, collectionPath(name), nil, &info)
	if err == nil {
		existing, err := info.vectorSize()
		if err != nil {
			return err
		}
		if existing != size {
			return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, name, existing, size)
		}
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     size,
			"distance": string(distance),
		},
	}
	return s.do(ctx, http.MethodPut, collectionPath(name), body, nil)
}

type pointStruct struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes points and waits for them to be applied.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.StoredPoint) error {
	if len(points) == 0 {
		return nil
	}
	body := struct {
		Points []pointStruct `json:"points"`
	}{Points: make([]pointStruct, len(points))}
	for i, p := range points {
		body.Points[i] = pointStruct{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return s.do(ctx, http.MethodPut, collectionPath(collection)+"/points?wait=true", body, nil)
}

type scrollRequest struct {
	Limit       int             `json:"limit"`
	Offset      json.RawMessage `json:"offset,omitempty"`
	WithPayload bool            `json:"with_payload"`
	WithVector  bool            `json:"with_vector"`
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			ID      json.RawMessage `json:"id"`
			Payload map[string]any  `json:"payload"`
		} `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
}

// Scroll returns one page of records. The cursor is the raw JSON of
// Qdrant's next_page_offset, so both UUID and integer ids round-trip.
func (s *Store) Scroll(
	ctx context.Context,
	collection string,
	limit int,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	req := scrollRequest{Limit: limit, WithPayload: true}
	if !cursor.Done() {
		req.Offset = json.RawMessage(cursor)
	}

	var resp scrollResponse
	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points/scroll", req, &resp); err != nil {
		return nil, "", err
	}

	records := make([]domain.Record, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		records = append(records, domain.Record{ID: pointID(p.ID), Payload: p.Payload})
	}

	var next domain.Cursor
	if off := bytes.TrimSpace(resp.Result.NextPageOffset); len(off) > 0 && string(off) != "null" {
		next = domain.Cursor(off)
	}
	return records, next, nil
}

// pointID renders a JSON id (string or integer) as text.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points/count", map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader = http.NoBody
		if data != nil {
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.apiKey != "" {
			req.Header.Set("api-key", s.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{method: method, path: path, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("qdrant %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func isNotFound(err error) bool {
	var e *apiError
	return errors.As(err, &e) && e.status == http.StatusNotFound
}
