// ABOUTME: Centralized configuration for the docqa engine, CLI and MCP server
// ABOUTME: Defaults, then an optional YAML file, then environment variables, then validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Embedder names
const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Snapshot backends
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
	BackendNone   = "none"
)

// Config holds all configuration for docqa
type Config struct {
	// OpenAI settings
	OpenAIKey       string        `yaml:"openai_api_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	ChatModel       string        `yaml:"chat_model"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	Embedder        string        `yaml:"embedder"`
	HashDimension   int           `yaml:"hash_dimension"`
	EmbedTimeout    time.Duration `yaml:"embed_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	Temperature     float64       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`

	// Retrieval settings
	MaxChunkChars    int     `yaml:"max_chunk_chars"`
	OverlapChars     int     `yaml:"overlap_chars"`
	TopK             int     `yaml:"top_k"`
	MaxContextChars  int     `yaml:"max_context_chars"`
	SnippetChars     int     `yaml:"snippet_chars"`
	BuildConcurrency int     `yaml:"build_concurrency"`
	EmbedBatchSize   int     `yaml:"embed_batch_size"`
	EmbedRateLimit   float64 `yaml:"embed_rate_limit"`
	EmbedBurst       int     `yaml:"embed_burst"`

	// Storage settings
	SnapshotBackend string `yaml:"snapshot_backend"`
	DBPath          string `yaml:"db_path"`

	// Charm settings
	CharmHost   string `yaml:"charm_host"`
	CharmDBName string `yaml:"charm_db"`
	AutoSync    bool   `yaml:"charm_auto_sync"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		ChatModel:        "gpt-4o-mini",
		EmbeddingModel:   "text-embedding-3-small",
		HashDimension:    256,
		EmbedTimeout:     30 * time.Second,
		GenerateTimeout:  60 * time.Second,
		MaxRetries:       3,
		RetryDelay:       2 * time.Second,
		Temperature:      0.3,
		MaxTokens:        1000,
		MaxChunkChars:    1000,
		OverlapChars:     200,
		TopK:             5,
		MaxContextChars:  4000,
		SnippetChars:     200,
		BuildConcurrency: 4,
		EmbedBatchSize:   16,
		EmbedBurst:       1,
		SnapshotBackend:  BackendSQLite,
		CharmHost:        "cloud.charm.sh",
		CharmDBName:      "docqa",
		AutoSync:         true,
	}
}

// Load reads configuration from DOCQA_CONFIG (if set) and the environment
func Load() (*Config, error) {
	return LoadFile(os.Getenv("DOCQA_CONFIG"))
}

// LoadFile reads configuration from the YAML file at path (skipped when empty),
// then applies environment overrides
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Embedder == "" {
		cfg.Embedder = EmbedderHash
		if cfg.OpenAIKey != "" {
			cfg.Embedder = EmbedderOpenAI
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("DOCQA_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("DOCQA_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Embedder = getEnv("DOCQA_EMBEDDER", c.Embedder)
	c.HashDimension = getEnvInt("DOCQA_HASH_DIMENSION", c.HashDimension)
	c.EmbedTimeout = getEnvDuration("DOCQA_EMBED_TIMEOUT", c.EmbedTimeout)
	c.GenerateTimeout = getEnvDuration("DOCQA_GENERATE_TIMEOUT", c.GenerateTimeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.Temperature = getEnvFloat("DOCQA_TEMPERATURE", c.Temperature)
	c.MaxTokens = getEnvInt("DOCQA_MAX_TOKENS", c.MaxTokens)

	c.MaxChunkChars = getEnvInt("DOCQA_MAX_CHUNK_CHARS", c.MaxChunkChars)
	c.OverlapChars = getEnvInt("DOCQA_OVERLAP_CHARS", c.OverlapChars)
	c.TopK = getEnvInt("DOCQA_TOP_K", c.TopK)
	c.MaxContextChars = getEnvInt("DOCQA_MAX_CONTEXT_CHARS", c.MaxContextChars)
	c.SnippetChars = getEnvInt("DOCQA_SNIPPET_CHARS", c.SnippetChars)
	c.BuildConcurrency = getEnvInt("DOCQA_BUILD_CONCURRENCY", c.BuildConcurrency)
	c.EmbedBatchSize = getEnvInt("DOCQA_EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedRateLimit = getEnvFloat("DOCQA_EMBED_RATE_LIMIT", c.EmbedRateLimit)
	c.EmbedBurst = getEnvInt("DOCQA_EMBED_BURST", c.EmbedBurst)

	c.SnapshotBackend = getEnv("DOCQA_SNAPSHOT_BACKEND", c.SnapshotBackend)
	c.DBPath = getEnv("DOCQA_DB_PATH", c.DBPath)

	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)
	c.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.AutoSync)
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("DOCQA_MAX_CHUNK_CHARS must be positive, got %d", c.MaxChunkChars)
	}
	if c.OverlapChars < 0 || c.OverlapChars >= c.MaxChunkChars {
		return fmt.Errorf("DOCQA_OVERLAP_CHARS must be 0-%d, got %d", c.MaxChunkChars-1, c.OverlapChars)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("DOCQA_TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("DOCQA_MAX_CONTEXT_CHARS must be positive, got %d", c.MaxContextChars)
	}
	if c.SnippetChars <= 0 {
		return fmt.Errorf("DOCQA_SNIPPET_CHARS must be positive, got %d", c.SnippetChars)
	}
	if c.BuildConcurrency < 1 || c.BuildConcurrency > 64 {
		return fmt.Errorf("DOCQA_BUILD_CONCURRENCY must be 1-64, got %d", c.BuildConcurrency)
	}
	if c.EmbedBatchSize < 1 {
		return fmt.Errorf("DOCQA_EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	if c.EmbedRateLimit < 0 {
		return fmt.Errorf("DOCQA_EMBED_RATE_LIMIT must not be negative, got %f", c.EmbedRateLimit)
	}
	if c.EmbedBurst < 1 {
		return fmt.Errorf("DOCQA_EMBED_BURST must be positive, got %d", c.EmbedBurst)
	}
	if c.EmbedTimeout <= 0 || c.GenerateTimeout <= 0 {
		return fmt.Errorf("embed and generate timeouts must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("DOCQA_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.HashDimension <= 0 {
		return fmt.Errorf("DOCQA_HASH_DIMENSION must be positive, got %d", c.HashDimension)
	}

	switch c.Embedder {
	case EmbedderHash:
	case EmbedderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("DOCQA_EMBEDDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("DOCQA_EMBEDDER must be openai or hash, got %q", c.Embedder)
	}

	switch c.SnapshotBackend {
	case BackendSQLite, BackendCharm, BackendNone:
	default:
		return fmt.Errorf("DOCQA_SNAPSHOT_BACKEND must be sqlite, charm or none, got %q", c.SnapshotBackend)
	}
	return nil
}

// HasGenerator reports whether answers can be generated
func (c *Config) HasGenerator() bool {
	return c.OpenAIKey != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
