package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, 60, cfg.Admission.MaxConcurrent)
	assert.Equal(t, 60, cfg.Admission.RateLimitPerMinute)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Knowledge.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Duration())
	assert.Equal(t, 100, cfg.Cache.MaxEntries)
	assert.Equal(t, "knowledge_base", cfg.Knowledge.Dir)
	assert.Equal(t, 800, cfg.Knowledge.MaxContextChars)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
server:
  port: 8081
admission:
  max_concurrent: 4
  rate_limit_per_minute: 10
  request_timeout: 5s
cache:
  enabled: true
  ttl: 30s
  max_entries: 16
knowledge:
  enabled: true
  dir: /tmp/kb
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Admission.MaxConcurrent)
	assert.Equal(t, 10, cfg.Admission.RateLimitPerMinute)
	assert.Equal(t, 5*time.Second, cfg.Admission.RequestTimeout.Duration())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Duration())
	assert.Equal(t, 16, cfg.Cache.MaxEntries)
	assert.True(t, cfg.Knowledge.Enabled)
	assert.Equal(t, "/tmp/kb", cfg.Knowledge.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0600))

	t.Setenv("SERVER_PORT", "9091")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9091, cfg.Server.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Server.Port)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero gate capacity", func(c *Config) { c.Admission.MaxConcurrent = 0 }},
		{"zero rate limit", func(c *Config) { c.Admission.RateLimitPerMinute = 0 }},
		{"empty llm url", func(c *Config) { c.LLM.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("sk-very-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "very-secret")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}
