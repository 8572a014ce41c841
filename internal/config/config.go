// Package config provides strongly typed configuration for docqa.
// Configuration is loaded once at startup from YAML with env overrides,
// then validated eagerly so bad settings fail at process start rather
// than on first query.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete docqa configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest"`
	Chat       ChatConfig       `yaml:"chat" json:"chat"`
	Eval       EvalConfig       `yaml:"eval" json:"eval"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// RetrievalConfig configures the retrieval engine.
type RetrievalConfig struct {
	// Strategy selects the default retrieval path: "similarity",
	// "multiquery", or "hybrid".
	Strategy string `yaml:"strategy" json:"strategy"`

	// TopK is the number of documents requested per query.
	TopK int `yaml:"top_k" json:"top_k"`

	// SimilarityThreshold is the minimum normalized similarity (0-1,
	// higher is better) below which retrieved evidence is treated as
	// insufficient.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// BM25Weight is the keyword-search weight for hybrid fusion (0-1).
	// Renormalized with VectorWeight to sum to 1.
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`

	// VectorWeight is the semantic-search weight for hybrid fusion (0-1).
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`

	// NumVariants is the number of query variants for multi-query
	// retrieval (including the original).
	NumVariants int `yaml:"num_variants" json:"num_variants"`
}

// EmbeddingsConfig configures the embedding collaborator.
type EmbeddingsConfig struct {
	// Provider is "ollama" or "static" (deterministic, offline).
	Provider   string        `yaml:"provider" json:"provider"`
	Model      string        `yaml:"model" json:"model"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	BatchSize  int           `yaml:"batch_size" json:"batch_size"`
	OllamaHost string        `yaml:"ollama_host" json:"ollama_host"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	CacheSize  int           `yaml:"cache_size" json:"cache_size"`
}

// LLMConfig configures the text-completion collaborator.
type LLMConfig struct {
	// Provider is "ollama" (default) or "anthropic".
	Provider string `yaml:"provider" json:"provider"`

	Model      string        `yaml:"model" json:"model"`
	OllamaHost string        `yaml:"ollama_host" json:"ollama_host"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens  int           `yaml:"max_tokens" json:"max_tokens"`

	// MaxRetries bounds the exponential-backoff retry loop inside the
	// collaborator wrapper. The core only ever sees the final outcome.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	// ChunkSize is the target chunk size in characters.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// ChunkOverlap is the overlap between consecutive chunks in characters.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	// WatchDebounce is the quiet period before a file change triggers
	// re-ingestion.
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// ChatConfig configures the answering agent.
type ChatConfig struct {
	// MaxHistory is the conversation ring buffer capacity in turns.
	MaxHistory int `yaml:"max_history" json:"max_history"`
	// MaxSources is the number of source documents shown with answers.
	MaxSources int `yaml:"max_sources" json:"max_sources"`
}

// EvalConfig configures the offline evaluator.
type EvalConfig struct {
	// DataDir is the root directory for datasets, jobs, and results.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// KValues are the default rank cutoffs for metrics@k.
	KValues []int `yaml:"k_values" json:"k_values"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// New creates a Config with sensible defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Retrieval: RetrievalConfig{
			Strategy:            "similarity",
			TopK:                4,
			SimilarityThreshold: 0.5,
			BM25Weight:          0.3,
			VectorWeight:        0.7,
			NumVariants:         3,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Dimensions: 0, // auto-detect from first embedding
			BatchSize:  32,
			OllamaHost: "",
			Timeout:    30 * time.Second,
			CacheSize:  10000,
		},
		LLM: LLMConfig{
			Provider:   "ollama",
			Model:      "llama3.2",
			OllamaHost: "",
			Timeout:    60 * time.Second,
			MaxTokens:  2048,
			MaxRetries: 3,
		},
		Ingest: IngestConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			WatchDebounce: 500 * time.Millisecond,
		},
		Chat: ChatConfig{
			MaxHistory: 5,
			MaxSources: 4,
		},
		Eval: EvalConfig{
			DataDir: defaultDataDir(),
			KValues: []int{1, 3, 5, 10},
		},
		Logging: LoggingConfig{
			Level:     "info",
			FilePath:  "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load reads configuration from the given path (optional), applies env
// overrides, and validates. An empty path loads defaults plus env.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML reads and merges a YAML file into the config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies DOCQA_* environment variables.
// Env vars take priority over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCQA_STRATEGY"); v != "" {
		c.Retrieval.Strategy = v
	}
	if v := os.Getenv("DOCQA_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.TopK = k
		}
	}
	if v := os.Getenv("DOCQA_SIMILARITY_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t >= 0 && t <= 1 {
			c.Retrieval.SimilarityThreshold = t
		}
	}
	if v := os.Getenv("DOCQA_BM25_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.BM25Weight = w
		}
	}
	if v := os.Getenv("DOCQA_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.VectorWeight = w
		}
	}
	if v := os.Getenv("DOCQA_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
		c.LLM.OllamaHost = v
	}
	if v := os.Getenv("DOCQA_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DOCQA_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("DOCQA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCQA_DATA_DIR"); v != "" {
		c.Eval.DataDir = v
	}
}

// Validate checks the configuration, failing fast on invalid settings.
func (c *Config) Validate() error {
	validStrategies := map[string]bool{"similarity": true, "multiquery": true, "hybrid": true}
	if !validStrategies[strings.ToLower(c.Retrieval.Strategy)] {
		return fmt.Errorf("retrieval.strategy must be 'similarity', 'multiquery', or 'hybrid', got %s", c.Retrieval.Strategy)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}

	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be between 0 and 1, got %f", c.Retrieval.SimilarityThreshold)
	}

	if c.Retrieval.BM25Weight < 0 || c.Retrieval.BM25Weight > 1 {
		return fmt.Errorf("retrieval.bm25_weight must be between 0 and 1, got %f", c.Retrieval.BM25Weight)
	}
	if c.Retrieval.VectorWeight < 0 || c.Retrieval.VectorWeight > 1 {
		return fmt.Errorf("retrieval.vector_weight must be between 0 and 1, got %f", c.Retrieval.VectorWeight)
	}
	if sum := c.Retrieval.BM25Weight + c.Retrieval.VectorWeight; math.Abs(sum) < 1e-9 {
		return fmt.Errorf("retrieval weights must not both be zero")
	}

	if c.Retrieval.NumVariants < 1 {
		return fmt.Errorf("retrieval.num_variants must be at least 1, got %d", c.Retrieval.NumVariants)
	}

	validEmbedProviders := map[string]bool{"ollama": true, "static": true}
	if !validEmbedProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'ollama' or 'static', got %s", c.Embeddings.Provider)
	}

	validLLMProviders := map[string]bool{"ollama": true, "anthropic": true}
	if !validLLMProviders[strings.ToLower(c.LLM.Provider)] {
		return fmt.Errorf("llm.provider must be 'ollama' or 'anthropic', got %s", c.LLM.Provider)
	}
	if strings.ToLower(c.LLM.Provider) == "anthropic" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for the anthropic provider (set ANTHROPIC_API_KEY)")
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}

	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("chat.max_history must be positive, got %d", c.Chat.MaxHistory)
	}

	for _, k := range c.Eval.KValues {
		if k <= 0 {
			return fmt.Errorf("eval.k_values must be positive integers, got %d", k)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the user configuration file path,
// following XDG_CONFIG_HOME when set.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docqa", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docqa", "config.yaml")
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml")
}

// defaultDataDir returns the default evaluator data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docqa", "data")
	}
	return filepath.Join(home, ".docqa", "data")
}
