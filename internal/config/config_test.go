package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifica/internal/model"
)

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv("PERPLEXITY_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	want := model.DefaultConfig()
	assert.Equal(t, want.API, cfg.API)
	assert.Equal(t, model.DefaultDomains, cfg.Sources.Domains)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), DirName, "history.db"), cfg.History.Path)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
}

func TestLoad_File(t *testing.T) {
	clearKeys(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  provider: openai
  base_url: http://localhost:8080/v1
  model: gpt-4o-mini
  temperature: 0.5
  timeout: 5s
sources:
  domains: [reuters.com, nasa.gov]
history:
  driver: memory
log:
  level: debug
  json: true
`), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.API.Provider)
	assert.Equal(t, "http://localhost:8080/v1", cfg.API.BaseURL)
	assert.InDelta(t, 0.5, cfg.API.Temperature, 1e-6)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1000, cfg.API.MaxTokens)
	assert.Equal(t, []string{"reuters.com", "nasa.gov"}, cfg.Sources.Domains)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Empty(t, cfg.History.Path)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearKeys(t)
	t.Setenv("VERIFICA_API_MODEL", "sonar-pro")
	t.Setenv("VERIFICA_API_MAX_TOKENS", "2000")
	t.Setenv("VERIFICA_HISTORY_PATH", "/tmp/custom.db")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "sonar-pro", cfg.API.Model)
	assert.Equal(t, 2000, cfg.API.MaxTokens)
	assert.Equal(t, "/tmp/custom.db", cfg.History.Path)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearKeys(t)
	t.Setenv("PERPLEXITY_API_KEY", "pplx-123")
	t.Setenv("OPENAI_API_KEY", "sk-456")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "pplx-123", cfg.API.APIKey)

	t.Setenv("VERIFICA_API_PROVIDER", "openai")
	cfg, err = Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "sk-456", cfg.API.APIKey)
	assert.Empty(t, cfg.API.BaseURL, "sonar endpoint must not leak into openai")
	assert.Empty(t, cfg.API.Model)

	t.Setenv("VERIFICA_API_API_KEY", "explicit")
	cfg, err = Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.API.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"unknown provider", func(c *model.Config) { c.API.Provider = "gemini" }},
		{"temperature too high", func(c *model.Config) { c.API.Temperature = 2.5 }},
		{"negative temperature", func(c *model.Config) { c.API.Temperature = -0.1 }},
		{"zero max tokens", func(c *model.Config) { c.API.MaxTokens = 0 }},
		{"zero timeout", func(c *model.Config) { c.API.Timeout = 0 }},
		{"negative search tuning", func(c *model.Config) { c.API.NumSources = -1 }},
		{"public suffix domain", func(c *model.Config) { c.Sources.Domains = []string{"co.uk"} }},
		{"url instead of domain", func(c *model.Config) { c.Sources.Domains = []string{"https://bbc.com"} }},
		{"unknown driver", func(c *model.Config) { c.History.Driver = "postgres" }},
		{"zero concurrency", func(c *model.Config) { c.Batch.Concurrency = 0 }},
	}

	require.NoError(t, Validate(model.DefaultConfig()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_TooManyDomains(t *testing.T) {
	cfg := model.DefaultConfig()
	for i := 0; i < 21; i++ {
		cfg.Sources.Domains = append(cfg.Sources.Domains, "example"+string(rune('a'+i))+".com")
	}
	assert.Error(t, Validate(cfg))
}
