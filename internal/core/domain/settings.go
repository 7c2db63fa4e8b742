package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Gemini).
	APIKey string

	// Dimensions overrides the model's known vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns Dimensions if set, otherwise the known size
// of Model, otherwise 0.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Gemini).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreKind identifies a vector store backend.
type VectorStoreKind string

// Available vector store backends.
const (
	// VectorStoreQdrant is a Qdrant server reached over REST.
	VectorStoreQdrant VectorStoreKind = "qdrant"

	// VectorStoreSQLite is a local SQLite database file.
	VectorStoreSQLite VectorStoreKind = "sqlite"

	// VectorStoreChromem is an embedded chromem-go database persisted to a file.
	VectorStoreChromem VectorStoreKind = "chromem"

	// VectorStorePGVector is PostgreSQL with the pgvector extension.
	VectorStorePGVector VectorStoreKind = "pgvector"
)

// IsValid returns true if the vector store kind is recognised.
func (k VectorStoreKind) IsValid() bool {
	switch k {
	case VectorStoreQdrant, VectorStoreSQLite, VectorStoreChromem, VectorStorePGVector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k VectorStoreKind) String() string {
	return string(k)
}

// VectorStoreSettings holds vector store connection configuration.
type VectorStoreSettings struct {
	Kind VectorStoreKind

	// URL is the Qdrant base URL. Host and Port are used when it is empty.
	URL    string
	Host   string
	Port   int
	APIKey string

	// Path is the database file for sqlite and chromem.
	Path string

	// DSN is the PostgreSQL connection string for pgvector.
	DSN string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
}

// DefaultAppSettings returns settings matching the ingestion defaults:
// OpenAI text-embedding-3-large, gpt-4.1-nano for summaries, Qdrant on localhost.
// API keys are left empty and come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		VectorStore: VectorStoreSettings{
			Kind: VectorStoreQdrant,
			Host: "localhost",
			Port: 6333,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4.1-nano",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}

// PipelineConfig holds passage processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the processor pipeline for an ingestion:
// enrich always runs, audit and summarize follow the option flags.
func PipelineConfigFor(opts IngestOptions) PipelineConfig {
	cfg := PipelineConfig{
		Processors: []string{"enrich"},
		ProcessorConfigs: map[string]map[string]any{
			"enrich": {"source": opts.Source},
		},
	}
	if opts.QualityChecks {
		cfg.Processors = append(cfg.Processors, "audit")
		cfg.ProcessorConfigs["audit"] = map[string]any{
			"chunk_size": opts.ChunkSize,
			"overlap":    opts.Overlap,
		}
	}
	if opts.GenerateSummaries {
		cfg.Processors = append(cfg.Processors, "summarize")
		cfg.ProcessorConfigs["summarize"] = map[string]any{
			"min_chars": SummaryMinChars,
		}
	}
	return cfg
}
