package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestNewAnthropicClient(t *testing.T) {
	apiKey := "test-api-key"
	model := "claude-sonnet-4-20250514"
	client := NewAnthropicClient(apiKey, model)

	if client == nil {
		t.Fatal("Expected non-nil client")
	}

	if client.apiKey != apiKey {
		t.Errorf("Expected API key '%s', got '%s'", apiKey, client.apiKey)
	}

	if client.model != model {
		t.Errorf("Expected model '%s', got '%s'", model, client.model)
	}

	if client.endpoint != ClaudeAPIEndpoint {
		t.Errorf("Expected endpoint '%s', got '%s'", ClaudeAPIEndpoint, client.endpoint)
	}

	if client.httpClient == nil {
		t.Error("Expected non-nil HTTP client")
	}
}

func TestAnthropicComplete(t *testing.T) {
	var captured ClaudeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Error("Missing or incorrect API key header")
		}

		if r.Header.Get("Anthropic-Version") != ClaudeAPIVersion {
			t.Error("Missing or incorrect API version header")
		}

		_ = json.NewDecoder(r.Body).Decode(&captured)

		claudeResp := ClaudeResponse{
			ID:   "test-id",
			Type: "message",
			Role: "assistant",
			Content: []Content{
				{Type: "text", Text: "  My journey began "},
				{Type: "text", Text: "in a small lab.\n"},
			},
			Model: ClaudeModel,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(claudeResp)
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	text, err := client.Complete(context.Background(), CompletionRequest{
		Prompt:      "Write an essay",
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if text != "My journey began in a small lab." {
		t.Errorf("Unexpected text: %q", text)
	}

	if captured.Model != ClaudeModel {
		t.Errorf("Expected default model '%s', got '%s'", ClaudeModel, captured.Model)
	}

	if captured.Temperature == nil || *captured.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", captured.Temperature)
	}

	if captured.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected max tokens %d, got %d", DefaultMaxTokens, captured.MaxTokens)
	}

	if len(captured.Messages) != 1 || captured.Messages[0].Content != "Write an essay" {
		t.Errorf("Unexpected messages: %+v", captured.Messages)
	}
}

func TestAnthropicModelOverride(t *testing.T) {
	var captured ClaudeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(ClaudeResponse{Content: []Content{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", Model: "claude-other"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if captured.Model != "claude-other" {
		t.Errorf("Expected model 'claude-other', got '%s'", captured.Model)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid request"}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error for bad request, got nil")
	}

	if !strings.Contains(err.Error(), "400") {
		t.Errorf("Error should mention status code 400: %v", err)
	}
}

func TestInvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not valid json"))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}

func TestEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claudeResp := ClaudeResponse{
			Content: []Content{},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(claudeResp)
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Empty content should be an empty draft, got error: %v", err)
	}

	if text != "" {
		t.Errorf("Expected empty text, got %q", text)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "")
	client.endpoint = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}

func TestOpenAIComplete(t *testing.T) {
	var captured OpenAIRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or incorrect Authorization header")
		}

		_ = json.NewDecoder(r.Body).Decode(&captured)

		resp := OpenAIResponse{
			Choices: []OpenAIChoice{
				{Message: Message{Role: "assistant", Content: "\nAn essay.\n"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "", server.URL+"/")

	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "Write", Temperature: 0.7})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if text != "An essay." {
		t.Errorf("Unexpected text: %q", text)
	}

	if captured.Model != OpenAIModel {
		t.Errorf("Expected default model '%s', got '%s'", OpenAIModel, captured.Model)
	}

	if captured.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", captured.Temperature)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`, wantErr: "429"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`, wantErr: "401"},
		{name: "error envelope", status: http.StatusOK, body: `{"error":{"message":"quota exceeded"}}`, wantErr: "quota exceeded"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no completion"},
		{name: "malformed", status: http.StatusOK, body: `{"choices":`, wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOpenAIClient("test-key", "", server.URL)
			_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpenAIBlankChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "", server.URL)
	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Blank content should be an empty draft, got error: %v", err)
	}

	if text != "" {
		t.Errorf("Expected empty text, got %q", text)
	}
}

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()

	c, err := NewCompleter(ctx, Settings{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewCompleter failed: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Errorf("Expected *OpenAIClient for empty provider, got %T", c)
	}

	c, err = NewCompleter(ctx, Settings{Provider: "Anthropic", APIKey: "k", BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewCompleter failed: %v", err)
	}
	ac, ok := c.(*AnthropicClient)
	if !ok {
		t.Fatalf("Expected *AnthropicClient, got %T", c)
	}
	if ac.endpoint != "http://localhost:1" {
		t.Errorf("Expected endpoint override, got '%s'", ac.endpoint)
	}

	_, err = NewCompleter(ctx, Settings{Provider: "openai"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	_, err = NewCompleter(ctx, Settings{Provider: "llama", APIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("Expected unknown provider error, got %v", err)
	}
}
