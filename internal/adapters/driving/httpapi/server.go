package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("httpapi: ingest service is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("httpapi: index service is required")

// Ports aggregates the driving ports the API calls.
type Ports struct {
	Ingest driving.IngestService
	Index  driving.IndexService

	// Runs is optional; without it the /v1/runs routes return 404.
	Runs driving.RunService

	// Defaults seeds every ingest request.
	Defaults domain.IngestOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}

// Config holds transport settings.
type Config struct {
	Addr string

	// JWTSecret enables bearer authentication when set.
	JWTSecret string

	// CORSOrigins lists allowed browser origins. Empty disables CORS.
	CORSOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	ports  *Ports
	router chi.Router

	mu      sync.Mutex
	baseCtx context.Context
	jobs    sync.WaitGroup
}

// NewServer creates a server and wires its routes.
func NewServer(cfg Config, ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingIngestService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if ports.Defaults.Collection == "" {
		ports.Defaults = domain.DefaultIngestOptions()
	}

	s := &Server{cfg: cfg, ports: ports, baseCtx: context.Background()}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(api chi.Router) {
		if s.cfg.JWTSecret != "" {
			api.Use(bearerAuth([]byte(s.cfg.JWTSecret)))
		}
		api.Post("/ingest", s.handleIngest)
		api.Get("/ingest/{collection}", s.handleStatus)
		api.Post("/index", s.handleIndex)
		if s.ports.Runs != nil {
			api.Get("/runs", s.handleListRuns)
			api.Get("/runs/{id}", s.handleGetRun)
		}
	})
	return r
}

// Run serves until ctx is cancelled, then waits for background ingestions
// to observe the cancellation.
func (s *Server) Run(ctx context.Context) error {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.baseCtx = jobCtx
	s.mu.Unlock()

	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	cancel()
	s.jobs.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// start runs an ingestion detached from the request.
func (s *Server) start(opts domain.IngestOptions) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		report, err := s.ports.Ingest.Ingest(ctx, opts, nil)
		if err != nil {
			logger.Warn("Ingestion of %s into %s failed: %v", opts.Source, opts.Collection, err)
			return
		}
		logger.Info("Ingested %s into %s: %d points, %d warnings",
			opts.Source, opts.Collection, report.Points, len(report.Warnings))
	}()
}

// wait blocks until background ingestions finish. Used by tests.
func (s *Server) wait() {
	s.jobs.Wait()
}
