package llm

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/verifica/internal/model"
)

// Provider sends a built verification request to a remote model.
// Implementations make exactly one outbound call per Complete and never retry;
// failures are returned as-is for the normalizer to classify.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends the request and returns the raw structured response
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is the provider-neutral verification payload
type Request struct {
	Model       string
	Prompt      string // Single user instruction embedding the claim
	Temperature float32
	MaxTokens   int

	// DomainFilter restricts the web sources the model may draw from
	DomainFilter []string

	// Schema constrains the reply body (structured output)
	SchemaName string
	Schema     *jsonschema.Definition

	// Optional search tuning; zero means "let the API decide"
	MaxTokensPerPage int
	MaxResults       int
	NumSources       int
}

// Response is the raw structured reply from the model
type Response struct {
	ID      string
	Model   string
	Choices []Choice
	Usage   model.Usage

	// Citations is the flat URL list some API versions return
	Citations []string

	// SearchResults is the richer source listing that superseded Citations
	SearchResults []SearchResult
}

// Choice is a single completion choice
type Choice struct {
	Index   int
	Role    string
	Content string
}

// SearchResult is one source the model consulted
type SearchResult struct {
	Title string
	URL   string
	Date  string
}

// Config holds provider configuration
type Config struct {
	// Provider name: "sonar", "openai"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey is sent as a bearer token
	APIKey string

	// BaseURL of the chat-completions API
	BaseURL string

	// Timeout for a single request
	Timeout time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultTimeout applies when Config.Timeout is zero
const DefaultTimeout = 30 * time.Second

// ConfigFromModel converts the application config to provider config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.API.Provider,
		Model:      cfg.API.Model,
		APIKey:     cfg.API.APIKey,
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPProxy:  cfg.HTTP.Proxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
