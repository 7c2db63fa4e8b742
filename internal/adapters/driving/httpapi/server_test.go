package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

type mockIngestService struct {
	mu      sync.Mutex
	running bool
	err     error
	got     []domain.IngestOptions
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	opts domain.IngestOptions,
	_ driving.ProgressFunc,
) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestReport{Points: 1}, nil
}

func (m *mockIngestService) Status(_ context.Context, collection string) (*driving.IngestStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driving.IngestStatus{Collection: collection, Running: m.running, Stage: domain.StageUpserting, PointsUpserted: 3}, nil
}

func (m *mockIngestService) calls() []domain.IngestOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.IngestOptions(nil), m.got...)
}

type mockIndexService struct {
	result *driving.IndexResult
	err    error
}

func (m *mockIndexService) BuildIndex(_ context.Context, _, _ string) (*driving.IndexResult, error) {
	return m.result, m.err
}

type mockRunService struct {
	runs []domain.Run
}

func (m *mockRunService) List(_ context.Context, limit int) ([]domain.Run, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunService) Get(_ context.Context, id string) (*domain.Run, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T, cfg Config, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(cfg, ports)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Config{}, nil)
	assert.ErrorIs(t, err, ErrMissingIngestService)

	_, err = NewServer(Config{}, &Ports{Ingest: &mockIngestService{}})
	assert.ErrorIs(t, err, ErrMissingIndexService)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})

	rec := do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIngest(t *testing.T) {
	t.Run("accepts and runs in background", func(t *testing.T) {
		ingest := &mockIngestService{}
		s := newTestServer(t, Config{}, &Ports{Ingest: ingest, Index: &mockIndexService{}})

		rec := do(s, http.MethodPost, "/v1/ingest",
			`{"source":"docs/","collection":"kb","chunk_size":300,"chunk_overlap":0}`, nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"collection":"kb","source":"docs/"}`, rec.Body.String())

		s.wait()
		calls := ingest.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, 300, calls[0].ChunkSize)
		assert.Equal(t, 0, calls[0].Overlap)
		assert.Equal(t, domain.DefaultBatchSize, calls[0].BatchSize)
	})

	t.Run("invalid options", func(t *testing.T) {
		s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})

		rec := do(s, http.MethodPost, "/v1/ingest", `{"source":"a","chunk_size":10,"chunk_overlap":10}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "overlap")
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})

		rec := do(s, http.MethodPost, "/v1/ingest", `{`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict while running", func(t *testing.T) {
		ingest := &mockIngestService{running: true}
		s := newTestServer(t, Config{}, &Ports{Ingest: ingest, Index: &mockIndexService{}})

		rec := do(s, http.MethodPost, "/v1/ingest", `{"source":"a"}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, ingest.calls())
	})
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{running: true}, Index: &mockIndexService{}})

	rec := do(s, http.MethodGet, "/v1/ingest/kb", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "kb", resp.Collection)
	assert.True(t, resp.Running)
	assert.Equal(t, 3, resp.PointsUpserted)
}

func TestIndex(t *testing.T) {
	w := domain.NewWarning(domain.WarningIndexWrite, "kb", "kb.json", errors.New("denied"))
	tests := []struct {
		name   string
		index  *mockIndexService
		body   string
		status int
		want   string
	}{
		{"ok", &mockIndexService{result: &driving.IndexResult{Path: "kb.json", Entries: 2}}, `{"collection":"kb"}`, http.StatusOK, `"entries":2`},
		{"write warning", &mockIndexService{result: &driving.IndexResult{Path: "kb.json", Warning: &w}}, `{"collection":"kb"}`, http.StatusOK, "denied"},
		{"missing collection", &mockIndexService{}, `{}`, http.StatusBadRequest, "collection is required"},
		{"not found", &mockIndexService{err: domain.ErrNotFound}, `{"collection":"nope"}`, http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: tt.index})
			rec := do(s, http.MethodPost, "/v1/index", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestRuns(t *testing.T) {
	runs := &mockRunService{runs: []domain.Run{
		{ID: "r2", Status: domain.RunStatusCompleted, StartedAt: time.Now()},
		{ID: "r1", Status: domain.RunStatusFailed, StartedAt: time.Now(), Error: "boom"},
	}}
	s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}, Runs: runs})

	t.Run("list with limit", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/v1/runs?limit=1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []runResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "r2", out[0].ID)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/v1/runs?limit=x", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/v1/runs/r1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "boom")
	})

	t.Run("get missing", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/v1/runs/zz", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRuns_DisabledWithoutService(t *testing.T) {
	s := newTestServer(t, Config{}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})
	rec := do(s, http.MethodGet, "/v1/runs", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	secret := "s3cret"
	s := newTestServer(t, Config{JWTSecret: secret}, &Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})

	sign := func(method jwt.SigningMethod, key any) string {
		token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}

	t.Run("health stays public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "", nil).Code)
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/v1/ingest/kb", "", nil).Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer " + sign(jwt.SigningMethodHS256, []byte("other"))}
		assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/v1/ingest/kb", "", h).Code)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer " + sign(jwt.SigningMethodHS512, []byte(secret))}
		assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/v1/ingest/kb", "", h).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer " + sign(jwt.SigningMethodHS256, []byte(secret))}
		assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/v1/ingest/kb", "", h).Code)
	})
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Config{CORSOrigins: []string{"http://localhost:5173"}},
		&Ports{Ingest: &mockIngestService{}, Index: &mockIndexService{}})

	rec := do(s, http.MethodOptions, "/v1/runs", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrConfiguration, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrRunInProgress, http.StatusConflict},
		{domain.ErrNoDocuments, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
