package model

import "time"

// Config holds the complete verifica configuration
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
}

// APIConfig configures the remote fact-checking model
type APIConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // sonar, openai
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model    string `yaml:"model" mapstructure:"model"`

	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Search tuning, sent only when non-zero
	MaxTokensPerPage int `yaml:"max_tokens_per_page" mapstructure:"max_tokens_per_page"`
	MaxResults       int `yaml:"max_results" mapstructure:"max_results"`
	NumSources       int `yaml:"num_sources" mapstructure:"num_sources"`
}

// SourcesConfig holds the trusted-domain allow-list
type SourcesConfig struct {
	Domains []string `yaml:"domains" mapstructure:"domains"`
}

// HistoryConfig selects the history backend
type HistoryConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite, memory
	Path   string `yaml:"path" mapstructure:"path"`     // SQLite file; empty means ~/.verifica/history.db
}

// HTTPConfig holds transport settings
type HTTPConfig struct {
	Proxy      string `yaml:"proxy,omitempty" mapstructure:"proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// BatchConfig configures batch verification
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultDomains is the built-in trusted-domain allow-list
var DefaultDomains = []string{
	// News organizations
	"reuters.com",
	"apnews.com",
	"npr.org",
	"bbc.com",
	"theguardian.com",

	// Encyclopedias
	"britannica.com",

	// Fact-checkers
	"snopes.com",
	"factcheck.org",
	"politifact.com",

	// Government/Scientific
	"cdc.gov",
	"nasa.gov",
	"who.int",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider:         "sonar",
			BaseURL:          "https://api.perplexity.ai",
			Model:            "sonar",
			Temperature:      0.2,
			MaxTokens:        1000,
			Timeout:          30 * time.Second,
			MaxTokensPerPage: 1024,
			MaxResults:       10,
			NumSources:       5,
		},
		Sources: SourcesConfig{
			Domains: append([]string(nil), DefaultDomains...),
		},
		History: HistoryConfig{
			Driver: "sqlite",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Batch: BatchConfig{
			Concurrency: 2,
		},
	}
}
