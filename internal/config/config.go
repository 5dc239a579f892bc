// ABOUTME: Centralized configuration for the recall document assistant
// ABOUTME: Loads defaults, an optional YAML file, then environment overrides, with validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/util"
)

// Provider names accepted by the embedding and generation settings
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Index backends
const (
	BackendSQLite  = "sqlite"
	BackendChromem = "chromem"
)

// Config holds all configuration for the assistant
type Config struct {
	// Storage settings
	DataDir      string `yaml:"data_dir"`
	IndexBackend string `yaml:"index_backend"`
	Collection   string `yaml:"collection"`

	// Chunking and retrieval
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	NResults     int `yaml:"n_results"`

	// Model settings
	EmbeddingProvider  string        `yaml:"embedding_provider"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	GenerationProvider string        `yaml:"generation_provider"`
	ChatModel          string        `yaml:"chat_model"`
	Timeout            time.Duration `yaml:"timeout"`
	RequestsPerMinute  int           `yaml:"requests_per_minute"`
	QueryCacheSize     int64         `yaml:"query_cache_size"`

	// Credentials are only read from the environment
	GoogleAPIKey    string `yaml:"-"`
	OpenAIKey       string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// Memory settings
	MemoryEnabled bool   `yaml:"memory_enabled"`
	MemoryDir     string `yaml:"memory_dir"`

	GenerationRetry RetrySettings `yaml:"generation_retry"`
	ExtractionRetry RetrySettings `yaml:"extraction_retry"`
}

// RetrySettings is the YAML form of a util.Policy
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Multiplier  float64       `yaml:"multiplier"`
}

// Policy converts the settings into a retry policy
func (r RetrySettings) Policy() util.Policy {
	return util.Policy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		MaxDelay:    r.MaxDelay,
		Multiplier:  r.Multiplier,
	}
}

func retrySettings(p util.Policy) RetrySettings {
	return RetrySettings{
		MaxAttempts: p.MaxAttempts,
		BaseDelay:   p.BaseDelay,
		MaxDelay:    p.MaxDelay,
		Multiplier:  p.Multiplier,
	}
}

// DefaultDataDir returns the data directory following the XDG spec.
// XDG_DATA_HOME is read at call time so tests can redirect it.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "recall")
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/recall/config.yaml
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, "recall", "config.yaml")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DataDir:            DefaultDataDir(),
		IndexBackend:       BackendSQLite,
		Collection:         "rag_docs",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		NResults:           3,
		EmbeddingProvider:  ProviderGemini,
		EmbeddingModel:     "gemini-embedding-001",
		GenerationProvider: ProviderGemini,
		ChatModel:          "gemini-2.5-flash",
		Timeout:            60 * time.Second,
		RequestsPerMinute:  60,
		QueryCacheSize:     1000,
		MemoryEnabled:      true,
		GenerationRetry:    retrySettings(util.GenerationPolicy),
		ExtractionRetry:    retrySettings(util.ExtractionPolicy),
	}
}

// Load reads the default config file if present, then the environment
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path (or the default location when empty).
// A missing default file is not an error; a missing explicit file is.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &models.ConfigurationError{Setting: path, Err: fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)}
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	// memory logs live beside the index unless configured separately
	if cfg.MemoryDir == "" {
		cfg.MemoryDir = cfg.DataDir
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("RECALL_DATA_DIR", c.DataDir)
	c.MemoryDir = getEnv("RECALL_MEMORY_DIR", c.MemoryDir)
	c.IndexBackend = getEnv("RECALL_INDEX_BACKEND", c.IndexBackend)
	c.Collection = getEnv("RECALL_COLLECTION", c.Collection)

	c.ChunkSize = getEnvInt("RECALL_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("RECALL_CHUNK_OVERLAP", c.ChunkOverlap)
	c.NResults = getEnvInt("RECALL_N_RESULTS", c.NResults)

	c.EmbeddingProvider = strings.ToLower(getEnv("RECALL_EMBEDDING_PROVIDER", c.EmbeddingProvider))
	c.EmbeddingModel = getEnv("RECALL_EMBEDDING_MODEL", c.EmbeddingModel)
	c.GenerationProvider = strings.ToLower(getEnv("RECALL_GENERATION_PROVIDER", c.GenerationProvider))
	c.ChatModel = getEnv("RECALL_CHAT_MODEL", c.ChatModel)
	c.Timeout = getEnvDuration("RECALL_TIMEOUT", c.Timeout)
	c.RequestsPerMinute = getEnvInt("RECALL_REQUESTS_PER_MINUTE", c.RequestsPerMinute)
	c.QueryCacheSize = int64(getEnvInt("RECALL_QUERY_CACHE_SIZE", int(c.QueryCacheSize)))

	c.MemoryEnabled = getEnvBool("RECALL_MEMORY_ENABLED", c.MemoryEnabled)

	c.GenerationRetry.MaxAttempts = getEnvInt("RECALL_GENERATION_MAX_ATTEMPTS", c.GenerationRetry.MaxAttempts)
	c.ExtractionRetry.MaxAttempts = getEnvInt("RECALL_EXTRACTION_MAX_ATTEMPTS", c.ExtractionRetry.MaxAttempts)

	c.GoogleAPIKey = getEnv("GOOGLE_API_KEY", c.GoogleAPIKey)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
}

// Validate checks ranges and enumerations. Credentials are checked lazily by RequireCredential.
func (c *Config) Validate() error {
	invalid := func(setting string, format string, args ...any) error {
		return &models.ConfigurationError{
			Setting: setting,
			Err:     fmt.Errorf("%w: %s", models.ErrInvalidConfig, fmt.Sprintf(format, args...)),
		}
	}

	if c.DataDir == "" {
		return invalid("data_dir", "must not be empty")
	}
	if c.Collection == "" {
		return invalid("collection", "must not be empty")
	}
	switch c.IndexBackend {
	case BackendSQLite, BackendChromem:
	default:
		return invalid("index_backend", "unknown backend %q", c.IndexBackend)
	}
	if c.ChunkSize <= 0 {
		return invalid("chunk_size", "must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return invalid("chunk_overlap", "must be in [0, chunk_size), got %d with chunk_size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.NResults < 1 || c.NResults > 100 {
		return invalid("n_results", "must be 1-100, got %d", c.NResults)
	}
	switch c.EmbeddingProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return invalid("embedding_provider", "unknown provider %q", c.EmbeddingProvider)
	}
	switch c.GenerationProvider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return invalid("generation_provider", "unknown provider %q", c.GenerationProvider)
	}
	if c.RequestsPerMinute < 0 {
		return invalid("requests_per_minute", "must not be negative, got %d", c.RequestsPerMinute)
	}
	if err := c.GenerationRetry.Policy().Validate(); err != nil {
		return invalid("generation_retry", "%v", err)
	}
	if err := c.ExtractionRetry.Policy().Validate(); err != nil {
		return invalid("extraction_retry", "%v", err)
	}
	return nil
}

// APIKey returns the credential for a provider, or "" if unset
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderGemini:
		return c.GoogleAPIKey
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// RequireCredential fails with a ConfigurationError when the provider's API key is unset
func (c *Config) RequireCredential(provider string) error {
	if c.APIKey(provider) != "" {
		return nil
	}
	return &models.ConfigurationError{Setting: credentialEnv(provider), Err: models.ErrMissingCredential}
}

func credentialEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	}
	return provider
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

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
