package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// AnthropicProvider generates text with Anthropic models through langchaingo.
type AnthropicProvider struct {
	Model  string
	APIKey string

	once sync.Once
	llm  llms.Model
	err  error
}

// NewAnthropicProvider creates a provider reading its key from apiKeyEnv.
func NewAnthropicProvider(model, apiKeyEnv string) *AnthropicProvider {
	return &AnthropicProvider{Model: model, APIKey: os.Getenv(apiKeyEnv)}
}

// IsConfigured checks if the API key is set.
func (a *AnthropicProvider) IsConfigured() bool {
	return a.APIKey != ""
}

// Generate sends a single human message and returns the first choice.
func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	a.once.Do(func() {
		a.llm, a.err = anthropic.New(
			anthropic.WithToken(a.APIKey),
			anthropic.WithModel(a.Model),
		)
	})
	if a.err != nil {
		return "", fmt.Errorf("create anthropic model: %w", a.err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := a.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Content, nil
}
