package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.7, cfg.Routing.ConfidenceThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Routing.Cooldown)
	assert.Equal(t, 3, cfg.Routing.MaxHandoffsPerHour)
	assert.Equal(t, 10, cfg.Routing.MaxHandoffsPerDay)
	assert.Equal(t, 24*time.Hour, cfg.Routing.Retention)
	assert.False(t, cfg.Routing.Adaptive.Enabled)

	assert.Equal(t, []string{"claude", "gpt4", "gemini"}, cfg.LLM.ProviderOrder)
	assert.Equal(t, 3, cfg.LLM.RetryAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)

	assert.NoError(t, cfg.Validate())
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/agentroute.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Routing.ConfidenceThreshold)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentroute.yaml")
	yml := `
routing:
  confidence_threshold: 0.8
  cooldown: 15m
llm:
  provider_order: [gpt4, claude]
  retry_attempts: 2
cache:
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Routing.ConfidenceThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Routing.Cooldown)
	assert.Equal(t, []string{"gpt4", "claude"}, cfg.LLM.ProviderOrder)
	assert.Equal(t, 2, cfg.LLM.RetryAttempts)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	// untouched values keep defaults
	assert.Equal(t, 3, cfg.Routing.MaxHandoffsPerHour)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	t.Setenv("AGENTROUTE_ROUTING_CONFIDENCE_THRESHOLD", "0.9")
	t.Setenv("AGENTROUTE_ROUTING_COOLDOWN", "45m")
	t.Setenv("AGENTROUTE_LLM_PROVIDER_ORDER", "gemini, claude")
	t.Setenv("AGENTROUTE_CACHE_ENABLE_SEMANTIC", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Routing.ConfidenceThreshold)
	assert.Equal(t, 45*time.Minute, cfg.Routing.Cooldown)
	assert.Equal(t, []string{"gemini", "claude"}, cfg.LLM.ProviderOrder)
	assert.True(t, cfg.Cache.EnableSemantic)
}

func TestLoader_ValidationRejectsBadConfig(t *testing.T) {
	t.Setenv("AGENTROUTE_ROUTING_CONFIDENCE_THRESHOLD", "1.5")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider order", func(c *Config) { c.LLM.ProviderOrder = nil }},
		{"zero cooldown", func(c *Config) { c.Routing.Cooldown = 0 }},
		{"zero hourly cap", func(c *Config) { c.Routing.MaxHandoffsPerHour = 0 }},
		{"short retention", func(c *Config) { c.Routing.Retention = time.Hour }},
		{"zero retries", func(c *Config) { c.LLM.RetryAttempts = 0 }},
		{"semantic threshold out of range", func(c *Config) { c.Cache.SemanticThreshold = 1.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
