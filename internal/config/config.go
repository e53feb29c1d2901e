package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/sources"
)

// EnvPrefix is the prefix of environment overrides (VERIFICA_API_MODEL, ...)
const EnvPrefix = "VERIFICA"

// DirName is the per-user directory holding config.yaml and history.db
const DirName = ".verifica"

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// SetDefaults registers every known key on v so that environment overrides
// reach Unmarshal
func SetDefaults(v *viper.Viper) {
	d := model.DefaultConfig()

	v.SetDefault("api.provider", d.API.Provider)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.api_key", d.API.APIKey)
	v.SetDefault("api.model", d.API.Model)
	v.SetDefault("api.temperature", d.API.Temperature)
	v.SetDefault("api.max_tokens", d.API.MaxTokens)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.max_tokens_per_page", d.API.MaxTokensPerPage)
	v.SetDefault("api.max_results", d.API.MaxResults)
	v.SetDefault("api.num_sources", d.API.NumSources)

	v.SetDefault("sources.domains", d.Sources.Domains)

	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("http.proxy", d.HTTP.Proxy)
	v.SetDefault("http.https_proxy", d.HTTP.HTTPSProxy)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)

	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
}

// BindEnv enables VERIFICA_* overrides on v
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves the configuration from defaults, the config file already
// read into v, and the environment. The result is validated.
func Load(v *viper.Viper) (*model.Config, error) {
	SetDefaults(v)
	BindEnv(v)

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderDefaults(cfg)
	if cfg.API.APIKey == "" {
		cfg.API.APIKey = providerKeyFromEnv(cfg.API.Provider)
	}

	if cfg.History.Driver == "sqlite" && cfg.History.Path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.History.Path = filepath.Join(dir, "history.db")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProviderDefaults drops the Sonar endpoint and model defaults when
// another provider is selected, so that provider's own defaults apply
func applyProviderDefaults(cfg *model.Config) {
	if cfg.API.Provider != "openai" {
		return
	}
	d := model.DefaultConfig().API
	if cfg.API.BaseURL == d.BaseURL {
		cfg.API.BaseURL = ""
	}
	if cfg.API.Model == d.Model {
		cfg.API.Model = ""
	}
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("PERPLEXITY_API_KEY")
	}
}

// Validate checks value ranges and the trusted-domain list
func Validate(cfg *model.Config) error {
	var errs []error

	switch cfg.API.Provider {
	case "sonar", "perplexity", "openai":
	default:
		errs = append(errs, fmt.Errorf("api.provider: unknown provider %q", cfg.API.Provider))
	}
	if cfg.API.Temperature < 0 || cfg.API.Temperature > 2 {
		errs = append(errs, fmt.Errorf("api.temperature: %v is outside [0, 2]", cfg.API.Temperature))
	}
	if cfg.API.MaxTokens <= 0 {
		errs = append(errs, errors.New("api.max_tokens: must be positive"))
	}
	if cfg.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout: must be positive"))
	}
	if cfg.API.MaxTokensPerPage < 0 || cfg.API.MaxResults < 0 || cfg.API.NumSources < 0 {
		errs = append(errs, errors.New("api: search tuning values cannot be negative"))
	}

	if _, err := sources.NewList(cfg.Sources.Domains); err != nil {
		errs = append(errs, fmt.Errorf("sources.domains: %w", err))
	}

	switch cfg.History.Driver {
	case "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("history.driver: unknown driver %q", cfg.History.Driver))
	}

	if cfg.Batch.Concurrency < 1 {
		errs = append(errs, errors.New("batch.concurrency: must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
