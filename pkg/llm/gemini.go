package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// GeminiModel is the default Gemini model.
const GeminiModel = "gemini-2.5-flash"

// GeminiClient generates text through the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (client *GeminiClient, err error) {
	if apiKey == "" {
		err = ErrMissingAPIKey
		return client, err
	}
	if model == "" {
		model = GeminiModel
	}

	var gc *genai.Client
	gc, err = genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		err = errors.Wrap(err, "failed to create GenAI client")
		return client, err
	}

	client = &GeminiClient{
		client: gc,
		model:  model,
	}
	return client, err
}

// Complete sends the prompt as a single user turn.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (responseText string, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(maxTokens), //nolint:gosec // bounded by DefaultMaxTokens scale
	}

	var resp *genai.GenerateContentResponse
	resp, err = c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		err = errors.Wrap(err, "GenAI generate failed")
		return responseText, err
	}

	responseText, err = geminiText(resp)
	return responseText, err
}

// geminiText extracts the first candidate's text. A response without
// candidates is an error; a candidate without text is an empty draft.
func geminiText(resp *genai.GenerateContentResponse) (text string, err error) {
	if resp == nil || len(resp.Candidates) == 0 {
		err = errors.New("no candidates in GenAI response")
		return text, err
	}

	text = strings.TrimSpace(resp.Text())
	return text, err
}
