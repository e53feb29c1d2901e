package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/verifica/internal/model"
)

func newTestSonar(t *testing.T, url string) *SonarProvider {
	t.Helper()
	p, err := NewSonarProvider(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return p
}

func TestNewSonarProvider_RequiresKey(t *testing.T) {
	if _, err := NewSonarProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestSonarProvider_Complete_Success(t *testing.T) {
	var captured map[string]json.RawMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		_, _ = w.Write([]byte(`{
			"id": "resp-1",
			"model": "sonar",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"rating\":\"TRUE\",\"summary\":\"s\",\"explanation\":\"e\"}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 45},
			"citations": ["https://reuters.com/a"],
			"search_results": [{"title": "Reuters", "url": "https://reuters.com/a", "date": "2024-03-01"}]
		}`))
	}))
	defer server.Close()

	provider := newTestSonar(t, server.URL)
	req := BuildRequest("Water is wet", model.DefaultConfig().API, []string{"reuters.com"})

	resp, err := provider.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.ID != "resp-1" {
		t.Errorf("Unexpected id: %s", resp.ID)
	}
	if len(resp.Choices) != 1 || !strings.Contains(resp.Choices[0].Content, `"rating":"TRUE"`) {
		t.Errorf("Unexpected choices: %+v", resp.Choices)
	}
	if resp.Usage.PromptTokens != 120 || resp.Usage.CompletionTokens != 45 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}
	if len(resp.Citations) != 1 {
		t.Errorf("Expected 1 citation, got %d", len(resp.Citations))
	}
	if len(resp.SearchResults) != 1 || resp.SearchResults[0].Date != "2024-03-01" {
		t.Errorf("Unexpected search results: %+v", resp.SearchResults)
	}

	for _, field := range []string{"messages", "model", "temperature", "max_tokens", "search_domain_filter", "response_format", "max_tokens_per_page", "max_results", "num_sources"} {
		if _, ok := captured[field]; !ok {
			t.Errorf("request body missing field %s", field)
		}
	}

	var filter []string
	_ = json.Unmarshal(captured["search_domain_filter"], &filter)
	if len(filter) != 1 || filter[0] != "reuters.com" {
		t.Errorf("Unexpected search_domain_filter: %v", filter)
	}

	var format struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		} `json:"json_schema"`
	}
	_ = json.Unmarshal(captured["response_format"], &format)
	if format.Type != "json_schema" || format.JSONSchema.Name != SchemaName || len(format.JSONSchema.Schema) == 0 {
		t.Errorf("Unexpected response_format: %+v", format)
	}
}

func TestSonarProvider_Complete_OmitsZeroSearchTuning(t *testing.T) {
	var captured map[string]json.RawMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	api := model.DefaultConfig().API
	api.MaxTokensPerPage = 0
	api.MaxResults = 0
	api.NumSources = 0

	_, err := newTestSonar(t, server.URL).Complete(context.Background(), BuildRequest("claim", api, nil))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	for _, field := range []string{"max_tokens_per_page", "max_results", "num_sources", "search_domain_filter"} {
		if _, ok := captured[field]; ok {
			t.Errorf("expected %s to be omitted", field)
		}
	}
}

func TestSonarProvider_Complete_HTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"Invalid API key","type":"invalid_api_key"}}`, wantMessage: "Invalid API key"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit exceeded","type":"rate_limit_error"}}`, wantMessage: "Rate limit exceeded"},
		{name: "server error", status: http.StatusServiceUnavailable, body: `upstream unavailable`, wantMessage: "upstream unavailable"},
		{name: "empty body", status: http.StatusTeapot, body: ``, wantMessage: "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestSonar(t, server.URL).Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			status, msg, ok := StatusCode(err)
			if !ok {
				t.Fatalf("Expected an API error, got %T: %v", err, err)
			}
			if status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, status)
			}
			if msg != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, msg)
			}
		})
	}
}

func TestSonarProvider_Complete_LongErrorBodyKeepsRunes(t *testing.T) {
	body := strings.Repeat("a", maxErrorBody-1) + "é and more"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	_, err := newTestSonar(t, server.URL).Complete(context.Background(), Request{Prompt: "x"})
	_, msg, ok := StatusCode(err)
	if !ok {
		t.Fatalf("Expected an API error, got %T: %v", err, err)
	}
	if !utf8.ValidString(msg) {
		t.Errorf("Expected valid UTF-8 message, got %q", msg)
	}
	if want := strings.Repeat("a", maxErrorBody-1); msg != want {
		t.Errorf("Expected message cut before the split rune, got %d bytes", len(msg))
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
	}

	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSonarProvider_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	_, err := newTestSonar(t, server.URL).Complete(context.Background(), Request{Prompt: "x"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %T: %v", err, err)
	}
}

func TestSonarProvider_Complete_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestSonar(t, server.URL).Complete(ctx, Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestSonarProvider_Complete_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestSonar(t, url).Complete(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected connection error, got nil")
	}
	if _, _, ok := StatusCode(err); ok {
		t.Errorf("connection failure should not carry an HTTP status: %v", err)
	}
}
