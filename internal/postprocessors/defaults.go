package postprocessors

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/audit"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/enrich"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/summarize"
)

// Dependencies are the services built-in processors may need.
// Both are optional; summarize fails to build without an LLM.
type Dependencies struct {
	LLM     driven.LLMService
	Prompts driven.PromptStore
}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry, deps Dependencies) {
	r.Register(enrich.Name, buildEnrich)
	r.Register(audit.Name, buildAudit)
	r.Register(summarize.Name, func(cfg map[string]any) (driven.PassageProcessor, error) {
		return buildSummarize(cfg, deps)
	})
}

// buildEnrich creates the enrichment processor.
// Supported config keys:
//   - source (string): value for the source key (default: the passage set source)
func buildEnrich(cfg map[string]any) (driven.PassageProcessor, error) {
	return enrich.New(getStringFromConfig(cfg, "source")), nil
}

// buildAudit creates the quality audit processor.
// Supported config keys:
//   - chunk_size (int): segmenter budget, the upper bound is twice this
//   - overlap (int): lower token bound
func buildAudit(cfg map[string]any) (driven.PassageProcessor, error) {
	return audit.New(getIntFromConfig(cfg, "chunk_size"), getIntFromConfig(cfg, "overlap"))
}

// buildSummarize creates the summary processor.
// Supported config keys:
//   - min_chars (int): minimum passage length to summarise (default: 200)
func buildSummarize(cfg map[string]any, deps Dependencies) (driven.PassageProcessor, error) {
	var opts []summarize.Option
	if _, ok := cfg["min_chars"]; ok {
		opts = append(opts, summarize.WithMinChars(getIntFromConfig(cfg, "min_chars")))
	}
	return summarize.New(deps.LLM, deps.Prompts, opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getStringFromConfig extracts a string from generic config map.
func getStringFromConfig(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}
