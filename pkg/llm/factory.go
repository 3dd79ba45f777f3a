package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ErrMissingAPIKey is returned when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("API key is required for the selected provider")

// Settings selects and configures a backend.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewCompleter builds the backend named by s.Provider. An empty provider
// selects OpenAI.
func NewCompleter(ctx context.Context, s Settings) (c Completer, err error) {
	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	if s.APIKey == "" {
		err = errors.Wrapf(ErrMissingAPIKey, "provider %s", provider)
		return c, err
	}

	switch provider {
	case ProviderOpenAI:
		c = NewOpenAIClient(s.APIKey, s.Model, s.BaseURL)
	case ProviderAnthropic:
		client := NewAnthropicClient(s.APIKey, s.Model)
		if s.BaseURL != "" {
			client.endpoint = s.BaseURL
		}
		c = client
	case ProviderGemini:
		var client *GeminiClient
		client, err = NewGeminiClient(ctx, s.APIKey, s.Model)
		if err == nil {
			c = client
		}
	default:
		err = errors.Errorf("unknown provider %q (expected %s, %s or %s)", s.Provider, ProviderOpenAI, ProviderAnthropic, ProviderGemini)
	}

	return c, err
}
