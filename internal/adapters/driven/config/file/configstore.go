package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Setting keys understood by Settings. Nested TOML tables flatten to these,
// so [embedding] provider = "ollama" is read as embedding.provider.
const (
	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingDimensions = "embedding.dimensions"
	KeyLLMProvider         = "llm.provider"
	KeyLLMModel            = "llm.model"
	KeyLLMBaseURL          = "llm.base_url"
	KeyVectorStoreKind     = "vector_store.kind"
	KeyVectorStoreURL      = "vector_store.url"
	KeyVectorStorePath     = "vector_store.path"
	KeyVectorStoreDSN      = "vector_store.dsn"
)

// DefaultDirName is the settings directory under the user's home.
const DefaultDirName = ".sercha-ingest"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Keys are held flattened in dot notation.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// DefaultDir returns ~/.sercha-ingest.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// NewConfigStore creates a TOML config store at <configDir>/config.toml.
// If configDir is empty, defaults to ~/.sercha-ingest.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers decode as int64.
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the TOML file. Caller must hold the lock.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nest(s.data))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load reads configuration from the TOML file. A missing file leaves the
// store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, s.filePath, err)
	}
	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Settings overlays the persisted provider and store choices onto base.
// Unset keys keep the base value. API keys are never read from this file.
func (s *ConfigStore) Settings(base domain.AppSettings) domain.AppSettings {
	out := base

	if p := s.GetString(KeyEmbeddingProvider); p != "" {
		out.Embedding.Provider = domain.AIProvider(p)
		if s.GetString(KeyEmbeddingModel) == "" {
			out.Embedding.Model = domain.DefaultEmbeddingModels()[out.Embedding.Provider]
		}
	}
	setString(&out.Embedding.Model, s.GetString(KeyEmbeddingModel))
	setString(&out.Embedding.BaseURL, s.GetString(KeyEmbeddingBaseURL))
	if d := s.GetInt(KeyEmbeddingDimensions); d > 0 {
		out.Embedding.Dimensions = d
	}

	if p := s.GetString(KeyLLMProvider); p != "" {
		out.LLM.Provider = domain.AIProvider(p)
		if s.GetString(KeyLLMModel) == "" {
			out.LLM.Model = domain.DefaultLLMModels()[out.LLM.Provider]
		}
	}
	setString(&out.LLM.Model, s.GetString(KeyLLMModel))
	setString(&out.LLM.BaseURL, s.GetString(KeyLLMBaseURL))

	if k := s.GetString(KeyVectorStoreKind); k != "" {
		out.VectorStore.Kind = domain.VectorStoreKind(k)
	}
	setString(&out.VectorStore.URL, s.GetString(KeyVectorStoreURL))
	setString(&out.VectorStore.Path, s.GetString(KeyVectorStorePath))
	setString(&out.VectorStore.DSN, s.GetString(KeyVectorStoreDSN))
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}

// nest is the inverse of flattenMap, so saved files use TOML tables.
func nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := m[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				m[part] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}

