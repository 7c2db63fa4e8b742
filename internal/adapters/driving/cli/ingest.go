package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-ingest/internal/app"
	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/watcher"
)

// Ingest flag values that have no Config counterpart.
var (
	ingestSource       string
	ingestSummaries    bool
	ingestQuality      bool
	ingestIndex        bool
	ingestIndexPath    string
	ingestDeterminism  bool
	ingestWatch        bool
	ingestNoTUI        bool
	ingestOpenAIAPIKey string
	ingestGitHubToken  string
)

// isTerminal reports whether w is an interactive terminal. Tests replace it.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [source]",
	Short: "Ingest a file, directory, URL, s3:// object or GitHub repository",
	Long: `Loads the source, splits it into passages, embeds them and upserts them
into the target collection, then writes the keyword sidecar index.

Sources:
  ./notes.md               a single file
  ./corpus                 every file under a directory
  https://example.com/doc  a web page, optionally crawled with --crawl-depth
  s3://bucket/key          an object store object or prefix
  github://owner/repo      a repository tree, optionally /path and ?ref=branch

Flags override the environment, which overrides the config file.

Examples:
  sercha-ingest ingest ./corpus --collection kb
  sercha-ingest ingest https://example.com --crawl-depth 1 --generate-summaries
  sercha-ingest ingest ./corpus --store sqlite --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	flags := ingestCmd.Flags()
	defaults := config.Defaults()

	flags.StringVar(&ingestSource, "source", "", "source to ingest (alternative to the argument)")
	flags.String("collection", defaults.Collection, "target collection")
	flags.Int("chunk-size", defaults.ChunkSize, "passage size budget in tokens")
	flags.Int("chunk-overlap", defaults.ChunkOverlap, "context carried into the next passage")
	flags.Int("batch-size", defaults.BatchSize, "passages per embedding and upsert call")
	flags.String("distance", defaults.Distance, "vector distance: Cosine, Dot or Euclid")
	flags.Int("crawl-depth", 0, "same-host link hops to follow for URL sources")
	flags.Int("concurrency", defaults.Concurrency, "parallel file loads")
	flags.BoolVar(&ingestDeterminism, "deterministic-ids", true, "derive point ids from passage content")
	flags.BoolVar(&ingestSummaries, "generate-summaries", false, "add LLM summaries as extra passages")
	flags.BoolVar(&ingestQuality, "quality-checks", false, "warn about passages outside the token band")
	flags.BoolVar(&ingestIndex, "bm25-index", true, "write the keyword sidecar index")
	flags.StringVar(&ingestIndexPath, "index-path", "", "sidecar index path (default <collection>_bm25_index.json)")

	flags.String("store", "", "vector store: qdrant, sqlite, chromem or pgvector")
	flags.String("store-path", "", "database file or directory for sqlite and chromem")
	flags.String("qdrant-url", "", "full Qdrant URL, overrides host and port")
	flags.String("qdrant-host", "", "Qdrant host (default localhost)")
	flags.Int("qdrant-port", 0, "Qdrant port (default 6333)")
	flags.String("qdrant-api-key", "", "Qdrant API key")
	flags.String("pgvector-dsn", "", "PostgreSQL connection string for pgvector")

	flags.String("embedding-provider", "", "embedding provider: openai, ollama or gemini")
	flags.String("embedding-model", "", "embedding model")
	flags.String("llm-provider", "", "summary LLM provider: openai, anthropic, ollama or gemini")
	flags.String("llm-model", "", "summary LLM model")
	flags.StringVar(&ingestOpenAIAPIKey, "openai-api-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
	flags.StringVar(&ingestGitHubToken, "github-token", "", "GitHub token for github:// sources (default $GITHUB_TOKEN)")

	flags.BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest a local source whenever it changes")
	flags.BoolVar(&ingestNoTUI, "no-tui", false, "print plain progress lines even on a terminal")

	rootCmd.AddCommand(ingestCmd)
}

// applyIngestFlags copies explicitly set flags over cfg.
func applyIngestFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	str("collection", &cfg.Collection)
	num("chunk-size", &cfg.ChunkSize)
	num("chunk-overlap", &cfg.ChunkOverlap)
	num("batch-size", &cfg.BatchSize)
	str("distance", &cfg.Distance)
	num("crawl-depth", &cfg.CrawlDepth)
	num("concurrency", &cfg.Concurrency)
	str("store", &cfg.Store)
	str("store-path", &cfg.StorePath)
	str("qdrant-url", &cfg.QdrantURL)
	str("qdrant-host", &cfg.QdrantHost)
	num("qdrant-port", &cfg.QdrantPort)
	str("qdrant-api-key", &cfg.QdrantAPIKey)
	str("pgvector-dsn", &cfg.PGVectorDSN)
	str("embedding-provider", &cfg.EmbeddingProvider)
	str("embedding-model", &cfg.EmbeddingModel)
	str("llm-provider", &cfg.LLMProvider)
	str("llm-model", &cfg.LLMModel)
	str("openai-api-key", &cfg.OpenAIAPIKey)
	str("github-token", &cfg.GitHubToken)

	if flags.Changed("deterministic-ids") {
		if ingestDeterminism {
			cfg.IDMode = string(domain.IDModeDeterministic)
		} else {
			cfg.IDMode = string(domain.IDModeRandom)
		}
	}
}

// ingestOptions resolves the options for one ingestion.
func ingestOptions(cmd *cobra.Command, args []string) (config.Config, domain.IngestOptions, error) {
	source := ingestSource
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		return config.Config{}, domain.IngestOptions{}, errMissingSource
	}

	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, domain.IngestOptions{}, err
	}
	applyIngestFlags(cmd, &cfg)

	opts := cfg.IngestOptions(source)
	opts.GenerateSummaries = ingestSummaries
	opts.QualityChecks = ingestQuality
	opts.BuildIndex = ingestIndex
	opts.IndexPath = ingestIndexPath
	if err := opts.Validate(); err != nil {
		return config.Config{}, domain.IngestOptions{}, err
	}
	return cfg, opts, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, opts, err := ingestOptions(cmd, args)
	if err != nil {
		return err
	}
	if ingestWatch && isRemote(opts.Source) {
		return fmt.Errorf("%w: --watch needs a local file or directory", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()

	svc, closeFn, err := openServices(ctx, cfg, app.Options{WantLLM: opts.GenerateSummaries})
	if err != nil {
		return err
	}
	defer closeFn()
	if svc.Ingest == nil {
		return errNotConfigured("ingest")
	}

	if err := ingestOnce(ctx, cmd, svc.Ingest, opts); err != nil {
		return err
	}
	if !ingestWatch {
		return nil
	}

	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", opts.Source)
	w := watcher.New(opts.Source)
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		logger.Debug("Changed: %s", strings.Join(changed, ", "))
		if err := ingestOnce(ctx, cmd, svc.Ingest, opts); err != nil {
			logger.Error("Re-ingest failed: %v", err)
		}
	})
}

// ingestOnce runs one ingestion with a progress view on terminals and plain
// progress lines otherwise.
func ingestOnce(ctx context.Context, cmd *cobra.Command, svc driving.IngestService, opts domain.IngestOptions) error {
	run := func(ctx context.Context, progress driving.ProgressFunc) (*domain.IngestReport, error) {
		return svc.Ingest(ctx, opts, progress)
	}

	var (
		report *domain.IngestReport
		err    error
	)
	if !ingestNoTUI && isTerminal(cmd.OutOrStdout()) {
		title := fmt.Sprintf("Ingesting %s into %s", opts.Source, opts.Collection)
		report, err = tui.Run(ctx, title, run)
	} else {
		report, err = run(ctx, plainProgress(cmd))
	}

	if errors.Is(err, domain.ErrNoDocuments) {
		cmd.Println("No documents found, nothing to do.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

// plainProgress prints one line per stage change and per upserted batch.
func plainProgress(cmd *cobra.Command) driving.ProgressFunc {
	lastStage := ""
	return func(p domain.IngestProgress) {
		if p.Stage == lastStage && p.Stage != domain.StageUpserting {
			return
		}
		lastStage = p.Stage
		switch {
		case p.Total > 0:
			cmd.Printf("[%s] %d/%d %s\n", p.Stage, p.Done, p.Total, p.Message)
		case p.Message != "":
			cmd.Printf("[%s] %s\n", p.Stage, p.Message)
		default:
			cmd.Printf("[%s]\n", p.Stage)
		}
	}
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	if report == nil {
		return
	}
	run := report.Run
	cmd.Printf("Upserted %d points into %s (%d passages, %d summaries) in %s.\n",
		report.Points, run.Collection, run.Passages, run.Summaries, run.Duration().Round(time.Millisecond))
	if run.IndexPath != "" {
		cmd.Printf("Keyword index: %s (%d entries)\n", run.IndexPath, report.IndexEntries)
	}
	if len(report.Warnings) > 0 {
		cmd.Printf("%d warnings:\n", len(report.Warnings))
		for _, w := range report.Warnings {
			cmd.Printf("  - %s\n", w.Error())
		}
	}
}

func isRemote(source string) bool {
	for _, prefix := range []string{"http://", "https://", "s3://", domain.GitHubScheme} {
		if strings.HasPrefix(strings.ToLower(source), prefix) {
			return true
		}
	}
	return false
}
