package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// ClaudeAPIEndpoint is the Anthropic API endpoint.
	ClaudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// ClaudeModel is the default Anthropic model.
	ClaudeModel = "claude-sonnet-4-20250514"
	// ClaudeAPIVersion is the API version.
	ClaudeAPIVersion = "2023-06-01"

	// DefaultTemperature matches the sampling used for essay drafting.
	DefaultTemperature = 0.7
	// DefaultMaxTokens leaves room for a 2000 word essay.
	DefaultMaxTokens = 4096
)

// Completer is a text-generation backend. It takes an instruction and returns
// the generated text verbatim.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (text string, err error)
}

// AnthropicClient represents a Claude API client.
type AnthropicClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	endpoint   string
}

// NewAnthropicClient creates a new Claude API client.
func NewAnthropicClient(apiKey, model string) (client *AnthropicClient) {
	if model == "" {
		model = ClaudeModel
	}
	client = &AnthropicClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: ClaudeAPIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// Complete sends a single user message to Claude.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (responseText string, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := req.Temperature

	claudeReq := ClaudeRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages: []Message{
			{
				Role:    "user",
				Content: req.Prompt,
			},
		},
	}

	var respBody []byte
	respBody, err = postJSON(ctx, c.httpClient, c.endpoint, claudeReq, map[string]string{
		"X-Api-Key":         c.apiKey,
		"Anthropic-Version": ClaudeAPIVersion,
	})
	if err != nil {
		return responseText, err
	}

	var claudeResp ClaudeResponse
	err = json.Unmarshal(respBody, &claudeResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse Claude response: %s", string(respBody))
		return responseText, err
	}

	for _, block := range claudeResp.Content {
		if block.Type == "" || block.Type == "text" {
			responseText += block.Text
		}
	}

	responseText = strings.TrimSpace(responseText)

	return responseText, err
}

// postJSON sends body to endpoint and returns the raw response on HTTP 200.
func postJSON(ctx context.Context, httpClient *http.Client, endpoint string, body interface{}, headers map[string]string) (respBody []byte, err error) {
	var reqBody []byte
	reqBody, err = json.Marshal(body)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return respBody, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return respBody, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	var resp *http.Response
	resp, err = httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return respBody, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return respBody, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return respBody, err
	}

	return respBody, err
}
