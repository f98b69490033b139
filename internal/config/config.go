// Package config provides configuration loading for promptgate.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. Every component of the daemon (admission control, response
// cache, knowledge base, embedding tiers, generation client) is configured
// from here and constructed once at process start.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates an invalid configuration value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete promptgate configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Admission  AdmissionConfig  `koanf:"admission"`
	Cache      CacheConfig      `koanf:"cache"`
	Knowledge  KnowledgeConfig  `koanf:"knowledge"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	LLM        LLMConfig        `koanf:"llm"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" (production) or "console" (development).
	Format string `koanf:"format"`
}

// AdmissionConfig holds request admission control configuration.
type AdmissionConfig struct {
	// MaxConcurrent is the concurrency gate capacity. Requests beyond this
	// many in flight are rejected immediately with SERVER_BUSY.
	MaxConcurrent int `koanf:"max_concurrent"`

	// RateLimitPerMinute is the per-client request budget within the
	// trailing 60 second window.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// RequestTimeout bounds the downstream computation (retrieval plus
	// generation) for a single admitted request.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	Enabled    bool     `koanf:"enabled"`
	TTL        Duration `koanf:"ttl"`
	MaxEntries int      `koanf:"max_entries"`
}

// KnowledgeConfig holds knowledge base configuration.
type KnowledgeConfig struct {
	// Enabled is the process-wide default for retrieval augmentation.
	// Individual requests may override it.
	Enabled bool `koanf:"enabled"`

	// Dir is the knowledge base root holding the three persistence
	// artifacts (documents.json, vectors.gob, index.gob).
	Dir string `koanf:"dir"`

	// MaxContextChars bounds the assembled context block merged into the
	// outbound prompt.
	MaxContextChars int `koanf:"max_context_chars"`
}

// EmbeddingsConfig holds the tiered embedding provider configuration.
type EmbeddingsConfig struct {
	Remote RemoteEmbeddingConfig `koanf:"remote"`
	Local  LocalEmbeddingConfig  `koanf:"local"`
}

// RemoteEmbeddingConfig configures the remote embedding service tier.
type RemoteEmbeddingConfig struct {
	Enabled bool     `koanf:"enabled"`
	BaseURL string   `koanf:"base_url"`
	Model   string   `koanf:"model"`
	APIKey  Secret   `koanf:"api_key"`
	Timeout Duration `koanf:"timeout"`
	// MaxRPS throttles outbound embedding calls. Zero disables throttling.
	MaxRPS float64 `koanf:"max_rps"`
}

// LocalEmbeddingConfig configures the in-process embedding model tier.
type LocalEmbeddingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// LLMConfig holds the generation collaborator configuration.
type LLMConfig struct {
	BaseURL      string   `koanf:"base_url"`
	APIKey       Secret   `koanf:"api_key"`
	Model        string   `koanf:"model"`
	Temperature  float64  `koanf:"temperature"`
	TopP         float64  `koanf:"top_p"`
	Timeout      Duration `koanf:"timeout"`
	SystemPrompt string   `koanf:"system_prompt"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Admission.MaxConcurrent == 0 {
		cfg.Admission.MaxConcurrent = 60
	}
	if cfg.Admission.RateLimitPerMinute == 0 {
		cfg.Admission.RateLimitPerMinute = 60
	}
	if cfg.Admission.RequestTimeout == 0 {
		cfg.Admission.RequestTimeout = Duration(35 * time.Second)
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(10 * time.Minute)
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 100
	}

	if cfg.Knowledge.Dir == "" {
		cfg.Knowledge.Dir = "knowledge_base"
	}
	if cfg.Knowledge.MaxContextChars == 0 {
		cfg.Knowledge.MaxContextChars = 800
	}

	if cfg.Embeddings.Remote.BaseURL == "" {
		cfg.Embeddings.Remote.BaseURL = "http://localhost:8080"
	}
	if cfg.Embeddings.Remote.Model == "" {
		cfg.Embeddings.Remote.Model = "embedding-2"
	}
	if cfg.Embeddings.Remote.Timeout == 0 {
		cfg.Embeddings.Remote.Timeout = Duration(30 * time.Second)
	}
	if cfg.Embeddings.Local.Model == "" {
		cfg.Embeddings.Local.Model = "BAAI/bge-small-en-v1.5"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:8000/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "deepseek-chat"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.6
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.95
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(35 * time.Second)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be 1-65535, got %d", ErrInvalidConfig, c.Server.Port)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be json or console, got %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Admission.MaxConcurrent < 1 {
		return fmt.Errorf("%w: admission.max_concurrent must be positive", ErrInvalidConfig)
	}
	if c.Admission.RateLimitPerMinute < 1 {
		return fmt.Errorf("%w: admission.rate_limit_per_minute must be positive", ErrInvalidConfig)
	}

	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("%w: cache.max_entries must be positive", ErrInvalidConfig)
	}

	if c.Knowledge.Enabled && c.Knowledge.Dir == "" {
		return fmt.Errorf("%w: knowledge.dir is required when knowledge is enabled", ErrInvalidConfig)
	}
	if c.Knowledge.MaxContextChars < 0 {
		return fmt.Errorf("%w: knowledge.max_context_chars cannot be negative", ErrInvalidConfig)
	}

	if c.Embeddings.Remote.Enabled && c.Embeddings.Remote.BaseURL == "" {
		return fmt.Errorf("%w: embeddings.remote.base_url is required", ErrInvalidConfig)
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("%w: llm.base_url is required", ErrInvalidConfig)
	}

	return nil
}
