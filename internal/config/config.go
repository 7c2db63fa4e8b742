// Package config assembles runtime configuration from defaults, an optional
// YAML or TOML file, the environment and an optional .env file.
//
// Precedence, highest first: command-line flags (applied by the CLI),
// environment, config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Config holds every tunable of the ingester. Provider and store fields left
// empty fall through to the persistent settings and then the built-in defaults.
type Config struct {
	Collection    string `env:"SERCHA_COLLECTION" yaml:"collection" toml:"collection"`
	ChunkSize     int    `env:"CHUNK_SIZE" yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap  int    `env:"CHUNK_OVERLAP" yaml:"chunk_overlap" toml:"chunk_overlap"`
	BatchSize     int    `env:"BATCH_SIZE" yaml:"batch_size" toml:"batch_size"`
	Distance      string `env:"DISTANCE" yaml:"distance" toml:"distance"`
	IDMode        string `env:"ID_MODE" yaml:"id_mode" toml:"id_mode"`
	IndexPageSize int    `env:"INDEX_PAGE_SIZE" yaml:"index_page_size" toml:"index_page_size"`
	Concurrency   int    `env:"SERCHA_CONCURRENCY" yaml:"concurrency" toml:"concurrency"`
	CrawlDepth    int    `env:"CRAWL_DEPTH" yaml:"crawl_depth" toml:"crawl_depth"`

	Store        string `env:"VECTOR_STORE" yaml:"store" toml:"store"`
	StorePath    string `env:"VECTOR_STORE_PATH" yaml:"store_path" toml:"store_path"`
	QdrantURL    string `env:"QDRANT_URL" yaml:"qdrant_url" toml:"qdrant_url"`
	QdrantHost   string `env:"QDRANT_HOST" yaml:"qdrant_host" toml:"qdrant_host"`
	QdrantPort   int    `env:"QDRANT_PORT" yaml:"qdrant_port" toml:"qdrant_port"`
	QdrantAPIKey string `env:"QDRANT_API_KEY" yaml:"qdrant_api_key" toml:"qdrant_api_key"`
	PGVectorDSN  string `env:"PGVECTOR_DSN" yaml:"pgvector_dsn" toml:"pgvector_dsn"`

	EmbeddingProvider   string `env:"EMBEDDING_PROVIDER" yaml:"embedding_provider" toml:"embedding_provider"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" yaml:"embedding_model" toml:"embedding_model"`
	EmbeddingBaseURL    string `env:"EMBEDDING_BASE_URL" yaml:"embedding_base_url" toml:"embedding_base_url"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" yaml:"embedding_dimensions" toml:"embedding_dimensions"`

	LLMProvider string `env:"LLM_PROVIDER" yaml:"llm_provider" toml:"llm_provider"`
	LLMModel    string `env:"LLM_MODEL" yaml:"llm_model" toml:"llm_model"`
	LLMBaseURL  string `env:"LLM_BASE_URL" yaml:"llm_base_url" toml:"llm_base_url"`

	// API keys come only from the environment.
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" yaml:"-" toml:"-"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" yaml:"-" toml:"-"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY" yaml:"-" toml:"-"`

	S3Region    string `env:"AWS_REGION" yaml:"s3_region" toml:"s3_region"`
	S3Endpoint  string `env:"S3_ENDPOINT" yaml:"s3_endpoint" toml:"s3_endpoint"`
	S3AccessKey string `env:"AWS_ACCESS_KEY_ID" yaml:"-" toml:"-"`
	S3SecretKey string `env:"AWS_SECRET_ACCESS_KEY" yaml:"-" toml:"-"`

	GitHubToken   string `env:"GITHUB_TOKEN" yaml:"-" toml:"-"`
	GitHubBaseURL string `env:"GITHUB_API_URL" yaml:"github_base_url" toml:"github_base_url"`

	DataDir string `env:"SERCHA_DATA_DIR" yaml:"data_dir" toml:"data_dir"`

	HTTPAddr    string   `env:"SERCHA_HTTP_ADDR" yaml:"http_addr" toml:"http_addr"`
	JWTSecret   string   `env:"SERCHA_JWT_SECRET" yaml:"-" toml:"-"`
	CORSOrigins []string `env:"SERCHA_CORS_ORIGINS" envSeparator:"," yaml:"cors_origins" toml:"cors_origins"`
}

// Sources names the optional inputs to Load.
type Sources struct {
	// EnvFile is loaded into the process environment without overriding
	// variables that are already set.
	EnvFile string

	// File is a .yaml, .yml or .toml config file.
	File string
}

// lowerCaseFallbacks maps upper-case variables to lower-case spellings that
// older deployments use.
var lowerCaseFallbacks = map[string]string{
	"OPENAI_API_KEY": "openai_api_key",
	"QDRANT_API_KEY": "qdrant_api_key",
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Collection:    domain.DefaultCollection,
		ChunkSize:     domain.DefaultChunkSize,
		ChunkOverlap:  domain.DefaultChunkOverlap,
		BatchSize:     domain.DefaultBatchSize,
		Distance:      domain.DistanceCosine.String(),
		IDMode:        string(domain.IDModeDeterministic),
		IndexPageSize: domain.DefaultScrollPageSize,
		Concurrency:   domain.DefaultConcurrency,
		HTTPAddr:      ":8080",
	}
}

// Load builds a Config: defaults, then the file, then the environment.
func Load(src Sources) (Config, error) {
	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil {
			return Config{}, fmt.Errorf("%w: load env file %s: %w", domain.ErrConfiguration, src.EnvFile, err)
		}
	}

	cfg := Defaults()
	if src.File != "" {
		if err := readFile(src.File, &cfg); err != nil {
			return Config{}, err
		}
	}

	opts := env.Options{Environment: environment()}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("%w: parse environment: %w", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

// environment snapshots os.Environ with the lower-case fallbacks applied.
func environment() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	for upper, lower := range lowerCaseFallbacks {
		if vars[upper] == "" && vars[lower] != "" {
			vars[upper] = vars[lower]
		}
	}
	return vars
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: config file %s not found", domain.ErrConfiguration, path)
		}
		return fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: unsupported config file type %q", domain.ErrConfiguration, ext)
	}
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, path, err)
	}
	return nil
}

// IngestOptions returns ingestion options for source.
func (c Config) IngestOptions(source string) domain.IngestOptions {
	opts := domain.DefaultIngestOptions()
	opts.Source = source
	opts.Collection = c.Collection
	opts.ChunkSize = c.ChunkSize
	opts.Overlap = c.ChunkOverlap
	opts.BatchSize = c.BatchSize
	opts.IDMode = domain.IDMode(c.IDMode)
	opts.CrawlDepth = c.CrawlDepth
	if c.Concurrency > 0 {
		opts.Concurrency = c.Concurrency
	}
	if d, ok := domain.ParseDistance(c.Distance); ok {
		opts.Distance = d
	} else {
		opts.Distance = domain.Distance(c.Distance)
	}
	return opts
}

// AppSettings overlays the provider and store fields onto base and fills
// API keys for the chosen providers.
func (c Config) AppSettings(base domain.AppSettings) domain.AppSettings {
	out := base

	if c.EmbeddingProvider != "" && domain.AIProvider(c.EmbeddingProvider) != out.Embedding.Provider {
		out.Embedding.Provider = domain.AIProvider(c.EmbeddingProvider)
		out.Embedding.Model = domain.DefaultEmbeddingModels()[out.Embedding.Provider]
		out.Embedding.BaseURL = ""
	}
	override(&out.Embedding.Model, c.EmbeddingModel)
	override(&out.Embedding.BaseURL, c.EmbeddingBaseURL)
	if c.EmbeddingDimensions > 0 {
		out.Embedding.Dimensions = c.EmbeddingDimensions
	}
	out.Embedding.APIKey = c.apiKey(out.Embedding.Provider)

	if c.LLMProvider != "" && domain.AIProvider(c.LLMProvider) != out.LLM.Provider {
		out.LLM.Provider = domain.AIProvider(c.LLMProvider)
		out.LLM.Model = domain.DefaultLLMModels()[out.LLM.Provider]
		out.LLM.BaseURL = ""
	}
	override(&out.LLM.Model, c.LLMModel)
	override(&out.LLM.BaseURL, c.LLMBaseURL)
	out.LLM.APIKey = c.apiKey(out.LLM.Provider)

	vs := &out.VectorStore
	if c.Store != "" {
		vs.Kind = domain.VectorStoreKind(c.Store)
	}
	override(&vs.URL, c.QdrantURL)
	override(&vs.Host, c.QdrantHost)
	if c.QdrantPort > 0 {
		vs.Port = c.QdrantPort
	}
	override(&vs.APIKey, c.QdrantAPIKey)
	override(&vs.Path, c.StorePath)
	override(&vs.DSN, c.PGVectorDSN)
	return out
}

func (c Config) apiKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return c.OpenAIAPIKey
	case domain.AIProviderAnthropic:
		return c.AnthropicAPIKey
	case domain.AIProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
