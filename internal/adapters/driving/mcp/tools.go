package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// IngestInput is the input schema for the ingest_source tool.
type IngestInput struct {
	Source            string `json:"source" jsonschema:"file path, directory, http(s) URL or s3:// URI to ingest"`
	Collection        string `json:"collection,omitempty" jsonschema:"target collection (default rag_data)"`
	ChunkSize         int    `json:"chunk_size,omitempty" jsonschema:"segment size budget"`
	ChunkOverlap      *int   `json:"chunk_overlap,omitempty" jsonschema:"context carried into the next segment"`
	BatchSize         int    `json:"batch_size,omitempty" jsonschema:"passages per embedding and upsert call"`
	CrawlDepth        int    `json:"crawl_depth,omitempty" jsonschema:"same-host link hops to follow for URL sources"`
	GenerateSummaries bool   `json:"generate_summaries,omitempty" jsonschema:"add LLM summaries as extra passages"`
	QualityChecks     bool   `json:"quality_checks,omitempty" jsonschema:"warn about passages outside the token band"`
	SkipIndex         bool   `json:"skip_index,omitempty" jsonschema:"do not write the lexical sidecar index"`
}

// IngestOutput is the output schema for the ingest_source tool.
type IngestOutput struct {
	RunID        string   `json:"run_id"`
	Collection   string   `json:"collection"`
	Passages     int      `json:"passages"`
	Summaries    int      `json:"summaries"`
	Points       int      `json:"points"`
	IndexPath    string   `json:"index_path,omitempty"`
	IndexEntries int      `json:"index_entries,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// IndexInput is the input schema for the build_lexical_index tool.
type IndexInput struct {
	Collection string `json:"collection" jsonschema:"collection to sweep"`
	Path       string `json:"path,omitempty" jsonschema:"output file (default <collection>_bm25_index.json)"`
}

// IndexOutput is the output schema for the build_lexical_index tool.
type IndexOutput struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Warning string `json:"warning,omitempty"`
}

// RunsInput is the input schema for the list_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 20)"`
}

// RunsOutput is the output schema for the list_runs tool.
type RunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// RunOutput is one ingestion run.
type RunOutput struct {
	ID          string `json:"id"`
	Collection  string `json:"collection"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Passages    int    `json:"passages"`
	Summaries   int    `json:"summaries"`
	Warnings    int    `json:"warnings"`
	Error       string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_source",
		Description: "Load, chunk, embed and upsert a source into a vector collection",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_lexical_index",
		Description: "Rebuild the id to text keyword index from a collection",
	}, s.handleBuildIndex)

	if s.ports.Runs != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_runs",
			Description: "List recent ingestion runs, newest first",
		}, s.handleListRuns)
	}
}

// options merges tool input over the configured defaults.
func (s *Server) options(input IngestInput) domain.IngestOptions {
	opts := s.ports.Defaults
	if opts.Collection == "" {
		opts = domain.DefaultIngestOptions()
	}
	opts.Source = input.Source
	if input.Collection != "" {
		opts.Collection = input.Collection
	}
	if input.ChunkSize > 0 {
		opts.ChunkSize = input.ChunkSize
	}
	if input.ChunkOverlap != nil {
		opts.Overlap = *input.ChunkOverlap
	}
	if input.BatchSize > 0 {
		opts.BatchSize = input.BatchSize
	}
	if input.CrawlDepth > 0 {
		opts.CrawlDepth = input.CrawlDepth
	}
	opts.GenerateSummaries = opts.GenerateSummaries || input.GenerateSummaries
	opts.QualityChecks = opts.QualityChecks || input.QualityChecks
	if input.SkipIndex {
		opts.BuildIndex = false
	}
	return opts
}

// handleIngest handles the ingest_source tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Source == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: source is required", domain.ErrInvalidInput)
	}

	report, err := s.ports.Ingest.Ingest(ctx, s.options(input), nil)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		RunID:        report.Run.ID,
		Collection:   report.Run.Collection,
		Passages:     report.Run.Passages,
		Summaries:    report.Run.Summaries,
		Points:       report.Points,
		IndexPath:    report.Run.IndexPath,
		IndexEntries: report.IndexEntries,
	}
	for _, w := range report.Warnings {
		output.Warnings = append(output.Warnings, w.Error())
	}
	return nil, output, nil
}

// handleBuildIndex handles the build_lexical_index tool invocation.
func (s *Server) handleBuildIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	result, err := s.ports.Index.BuildIndex(ctx, input.Collection, input.Path)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	output := IndexOutput{Path: result.Path, Entries: result.Entries}
	if result.Warning != nil {
		output.Warning = result.Warning.Error()
	}
	return nil, output, nil
}

// handleListRuns handles the list_runs tool invocation.
func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunsInput,
) (*mcp.CallToolResult, RunsOutput, error) {
	runs, err := s.ports.Runs.List(ctx, input.Limit)
	if err != nil {
		return nil, RunsOutput{}, err
	}

	output := RunsOutput{Runs: make([]RunOutput, len(runs)), Count: len(runs)}
	for i := range runs {
		output.Runs[i] = runOutput(&runs[i])
	}
	return nil, output, nil
}

func runOutput(r *domain.Run) RunOutput {
	out := RunOutput{
		ID:         r.ID,
		Collection: r.Collection,
		Source:     r.Source,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		Passages:   r.Passages,
		Summaries:  r.Summaries,
		Warnings:   r.Warnings,
		Error:      r.Error,
	}
	if r.CompletedAt != nil {
		out.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return out
}
