package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// OpenAIBaseURL is the default OpenAI-compatible API root.
	OpenAIBaseURL = "https://api.openai.com/v1"
	// OpenAIModel is the default chat model.
	OpenAIModel = "gpt-3.5-turbo-16k"
)

// OpenAIClient talks to any OpenAI-compatible chat completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a chat completions client. An empty baseURL selects
// the public OpenAI endpoint.
func NewOpenAIClient(apiKey, model, baseURL string) (client *OpenAIClient) {
	if model == "" {
		model = OpenAIModel
	}
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	client = &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// Complete sends the prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (responseText string, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	body := OpenAIRequest{
		Model: model,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	var respBody []byte
	respBody, err = postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return responseText, err
	}

	var openaiResp OpenAIResponse
	err = json.Unmarshal(respBody, &openaiResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse OpenAI response: %s", string(respBody))
		return responseText, err
	}

	if openaiResp.Error != nil {
		err = errors.Errorf("API error: %s", openaiResp.Error.Message)
		return responseText, err
	}

	if len(openaiResp.Choices) == 0 {
		err = errors.New("no completion returned")
		return responseText, err
	}

	// An empty message is still a draft. It counts as zero words.
	responseText = strings.TrimSpace(openaiResp.Choices[0].Message.Content)

	return responseText, err
}
