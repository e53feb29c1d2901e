package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/util"
)

// DefaultSonarBaseURL is the Perplexity API root
const DefaultSonarBaseURL = "https://api.perplexity.ai"

// maxErrorBody bounds how much of an error body is kept in APIError messages
const maxErrorBody = 512

// SonarProvider implements Provider for the Perplexity Sonar chat-completions API
type SonarProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Sonar API structures
type sonarRequest struct {
	Model              string                               `json:"model"`
	Messages           []openai.ChatCompletionMessage       `json:"messages"`
	Temperature        float32                              `json:"temperature"`
	MaxTokens          int                                  `json:"max_tokens"`
	SearchDomainFilter []string                             `json:"search_domain_filter,omitempty"`
	ResponseFormat     *openai.ChatCompletionResponseFormat `json:"response_format,omitempty"`
	MaxTokensPerPage   int                                  `json:"max_tokens_per_page,omitempty"`
	MaxResults         int                                  `json:"max_results,omitempty"`
	NumSources         int                                  `json:"num_sources,omitempty"`
}

type sonarResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Date  string `json:"date"`
	} `json:"search_results"`
}

type sonarError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// NewSonarProvider creates a new Sonar provider
func NewSonarProvider(config Config) (*SonarProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Sonar API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultSonarBaseURL
	}

	httpClient, err := util.NewHTTPClient(config.HTTPProxy, config.HTTPSProxy)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &SonarProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *SonarProvider) Name() string {
	return "sonar"
}

// Complete sends the verification request to the chat-completions endpoint
func (p *SonarProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		modelName = "sonar"
	}

	apiReq := sonarRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Temperature:        req.Temperature,
		MaxTokens:          req.MaxTokens,
		SearchDomainFilter: req.DomainFilter,
		MaxTokensPerPage:   req.MaxTokensPerPage,
		MaxResults:         req.MaxResults,
		NumSources:         req.NumSources,
	}
	if req.Schema != nil {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	out := &Response{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: model.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
		Citations: resp.Citations,
	}
	for _, c := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Index:   c.Index,
			Role:    c.Message.Role,
			Content: c.Message.Content,
		})
	}
	for _, r := range resp.SearchResults {
		out.SearchResults = append(out.SearchResults, SearchResult{
			Title: r.Title,
			URL:   r.URL,
			Date:  r.Date,
		})
	}

	return out, nil
}

// makeRequest makes an HTTP request to the Sonar API
func (p *SonarProvider) makeRequest(ctx context.Context, apiReq sonarRequest) (*sonarResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, newAPIError(httpResp.StatusCode, respBody)
	}

	var resp sonarResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &resp, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope sonarError
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Detail
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = truncateUTF8(strings.ToValidUTF8(strings.TrimSpace(string(body)), ""), maxErrorBody)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	return apiErr
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
