package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

type ingestRequest struct {
	Source            string `json:"source"`
	Collection        string `json:"collection,omitempty"`
	ChunkSize         int    `json:"chunk_size,omitempty"`
	ChunkOverlap      *int   `json:"chunk_overlap,omitempty"`
	BatchSize         int    `json:"batch_size,omitempty"`
	CrawlDepth        int    `json:"crawl_depth,omitempty"`
	GenerateSummaries bool   `json:"generate_summaries,omitempty"`
	QualityChecks     bool   `json:"quality_checks,omitempty"`
	SkipIndex         bool   `json:"skip_index,omitempty"`
}

func (req ingestRequest) options(defaults domain.IngestOptions) domain.IngestOptions {
	opts := defaults
	opts.Source = req.Source
	if req.Collection != "" {
		opts.Collection = req.Collection
	}
	if req.ChunkSize > 0 {
		opts.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap != nil {
		opts.Overlap = *req.ChunkOverlap
	}
	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.CrawlDepth > 0 {
		opts.CrawlDepth = req.CrawlDepth
	}
	opts.GenerateSummaries = opts.GenerateSummaries || req.GenerateSummaries
	opts.QualityChecks = opts.QualityChecks || req.QualityChecks
	if req.SkipIndex {
		opts.BuildIndex = false
	}
	return opts
}

type ingestAccepted struct {
	Collection string `json:"collection"`
	Source     string `json:"source"`
}

type statusResponse struct {
	Collection     string `json:"collection"`
	Running        bool   `json:"running"`
	Stage          string `json:"stage,omitempty"`
	PointsUpserted int    `json:"points_upserted"`
	Warnings       int    `json:"warnings"`
}

type indexRequest struct {
	Collection string `json:"collection"`
	Path       string `json:"path,omitempty"`
}

type indexResponse struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Warning string `json:"warning,omitempty"`
}

type runResponse struct {
	ID          string     `json:"id"`
	Collection  string     `json:"collection"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Passages    int        `json:"passages"`
	Summaries   int        `json:"summaries"`
	Batches     int        `json:"batches"`
	Warnings    int        `json:"warnings"`
	IndexPath   string     `json:"index_path,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func newRunResponse(r *domain.Run) runResponse {
	return runResponse{
		ID:          r.ID,
		Collection:  r.Collection,
		Source:      r.Source,
		Status:      string(r.Status),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Passages:    r.Passages,
		Summaries:   r.Summaries,
		Batches:     r.Batches,
		Warnings:    r.Warnings,
		IndexPath:   r.IndexPath,
		Error:       r.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest validates the request and starts the ingestion in the
// background. A second ingestion into a running collection is rejected.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	opts := req.options(s.ports.Defaults)
	if err := opts.Validate(); err != nil {
		writeError(w, err)
		return
	}

	status, err := s.ports.Ingest.Status(r.Context(), opts.Collection)
	if err != nil {
		writeError(w, err)
		return
	}
	if status != nil && status.Running {
		writeError(w, fmt.Errorf("%w: %s", domain.ErrRunInProgress, opts.Collection))
		return
	}

	s.start(opts)
	writeJSON(w, http.StatusAccepted, ingestAccepted{Collection: opts.Collection, Source: opts.Source})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	status, err := s.ports.Ingest.Status(r.Context(), collection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Collection:     collection,
		Running:        status.Running,
		Stage:          status.Stage,
		PointsUpserted: status.PointsUpserted,
		Warnings:       status.WarningCount,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Collection == "" {
		writeMessage(w, http.StatusBadRequest, "collection is required")
		return
	}

	result, err := s.ports.Index.BuildIndex(r.Context(), req.Collection, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := indexResponse{Path: result.Path, Entries: result.Entries}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.ports.Runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]runResponse, len(runs))
	for i := range runs {
		out[i] = newRunResponse(&runs[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.ports.Runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoDocuments), errors.Is(err, domain.ErrSourceUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	writeMessage(w, code, err.Error())
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Writing response: %v", err)
	}
}
