// Package app wires adapters into the ingestion services from a resolved
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	fsfetch "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/fetch/file"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/fetch/github"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/fetch/objectstore"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/fetch/web"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/vectorstore/chromem"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/vectorstore/pgvector"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/services"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/docconv"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/eml"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/html"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/htmltext"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/markdown"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-ingest/internal/extractors/raw"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors"
	"github.com/custodia-labs/sercha-ingest/internal/segmenter"
)

// Options select which services New builds.
type Options struct {
	// SettingsDir holds config.toml and prompts/. Empty means ~/.sercha-ingest.
	SettingsDir string

	// WantLLM builds the summary LLM. A failure becomes a warning.
	WantLLM bool

	// IndexOnly skips the embedding and loader stack. Ingest is nil.
	IndexOnly bool
}

// App holds the wired services.
type App struct {
	Settings domain.AppSettings

	Ingest *services.IngestOrchestrator
	Index  *services.LexicalIndexBuilder
	Runs   *services.RunService

	closers []func() error
}

// New builds the application. Run history is best effort: if the sqlite
// store cannot be opened, runs are not recorded.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	a.Settings = cfg.AppSettings(persistedSettings(opts.SettingsDir))

	local, err := sqlite.NewStore(cfg.DataDir)
	var runs driven.RunStore
	if err != nil {
		logger.Warn("Run history disabled: %v", err)
	} else {
		a.closers = append(a.closers, local.Close)
		runs = local.RunStore()
	}
	a.Runs = services.NewRunService(runs)

	store, err := openVectorStore(ctx, a.Settings.VectorStore, local)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	a.Index = services.NewLexicalIndexBuilder(store, configfile.NewIndexWriter(""),
		services.WithPageSize(cfg.IndexPageSize))

	if opts.IndexOnly {
		ok = true
		return a, nil
	}

	aiResult, err := ai.Init(ctx, a.Settings, opts.WantLLM)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { aiResult.Close(); return nil })

	prompts, err := configfile.NewPromptStore(promptDir(opts.SettingsDir))
	if err != nil {
		logger.Warn("Prompt overrides disabled: %v", err)
	}

	registry := postprocessors.NewRegistry()
	deps := postprocessors.Dependencies{LLM: aiResult.LLMService}
	if prompts != nil {
		deps.Prompts = prompts
	}
	postprocessors.RegisterDefaults(registry, deps)

	a.Ingest = services.NewIngestOrchestrator(
		newLoader(ctx, cfg),
		registry,
		services.NewBatchUpserter(aiResult.EmbeddingService, store),
		a.Index,
		runs,
	)
	ok = true
	return a, nil
}

// Close releases every opened resource in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func persistedSettings(dir string) domain.AppSettings {
	base := domain.DefaultAppSettings()
	store, err := configfile.NewConfigStore(dir)
	if err != nil {
		logger.Warn("Ignoring persisted settings: %v", err)
		return base
	}
	return store.Settings(base)
}

func promptDir(settingsDir string) string {
	if settingsDir == "" {
		return ""
	}
	return filepath.Join(settingsDir, "prompts")
}

// openVectorStore opens the configured backend. The sqlite backend shares
// the run history database.
func openVectorStore(
	ctx context.Context,
	s domain.VectorStoreSettings,
	local *sqlite.Store,
) (driven.VectorStore, error) {
	switch s.Kind {
	case domain.VectorStoreQdrant, "":
		return qdrant.New(qdrant.Config{URL: s.URL, Host: s.Host, Port: s.Port, APIKey: s.APIKey}), nil

	case domain.VectorStoreSQLite:
		if s.Path != "" {
			other, err := sqlite.NewStore(s.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: open sqlite store: %w", domain.ErrConfiguration, err)
			}
			return closingStore{VectorStore: other.VectorStore(), close: other.Close}, nil
		}
		if local == nil {
			return nil, fmt.Errorf("%w: sqlite store unavailable", domain.ErrConfiguration)
		}
		return local.VectorStore(), nil

	case domain.VectorStoreChromem:
		return chromem.New(chromem.Config{Dir: s.Path, Compress: true})

	case domain.VectorStorePGVector:
		return pgvector.Open(ctx, s.DSN)

	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrConfiguration, s.Kind)
	}
}

// closingStore closes the database that owns a wrapped vector store.
type closingStore struct {
	driven.VectorStore
	close func() error
}

func (c closingStore) Close() error {
	return c.close()
}

// newLoader assembles fetchers and extractor tiers. The S3 fetcher is
// optional: without AWS configuration s3:// sources are rejected. GitHub
// repositories are read anonymously unless a token is configured.
func newLoader(ctx context.Context, cfg config.Config) *services.LoaderChain {
	files := fsfetch.New()
	pages := web.New()
	fetchers := []driven.Fetcher{files, pages}

	s3, err := objectstore.New(ctx, objectstore.Config{
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		logger.Debug("S3 sources disabled: %v", err)
	} else {
		fetchers = append(fetchers, s3)
	}

	opts := []services.LoaderOption{
		services.WithListerFor(domain.SourceKindDirectory, files),
		services.WithCrawler(pages),
		services.WithConcurrency(cfg.Concurrency),
	}
	repos, err := github.New(ctx, github.Config{Token: cfg.GitHubToken, BaseURL: cfg.GitHubBaseURL})
	if err != nil {
		logger.Warn("GitHub sources disabled: %v", err)
	} else {
		fetchers = append(fetchers, repos)
		opts = append(opts, services.WithListerFor(domain.SourceKindGitHub, repos))
	}

	extractors := []driven.Extractor{
		docconv.NewManaged(),
		docconv.NewStructural(),
		eml.New(),
		html.New(),
		html.NewForURL(),
		htmltext.New(),
		markdown.New(),
		pdf.NewLayout(),
		pdf.NewPlain(),
		raw.NewSimple(),
		raw.NewFallback(),
	}

	return services.NewLoaderChain(fetchers, extractors, segmenter.NewFactory(), opts...)
}
