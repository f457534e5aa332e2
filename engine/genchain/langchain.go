package genchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LLMGenerator adapts a langchaingo model to the TextGenerator interface.
type LLMGenerator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewOpenAI creates a generator backed by an OpenAI-compatible chat API.
func NewOpenAI(baseURL, apiKey, model string) (*LLMGenerator, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if apiKey == "" {
		// Local OpenAI-compatible servers accept any token.
		apiKey = "none"
	}
	opts = append(opts, openai.WithToken(apiKey))

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("genchain: openai client: %w", err)
	}
	return &LLMGenerator{model: client, temperature: 0.3, maxTokens: 800}, nil
}

// NewOllama creates a generator backed by a local Ollama server.
func NewOllama(serverURL, model string) (*LLMGenerator, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("genchain: ollama client: %w", err)
	}
	return &LLMGenerator{model: client, temperature: 0.3, maxTokens: 800}, nil
}

// GenerateText implements TextGenerator.
func (g *LLMGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
}
