package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/config"
)

// NewFromConfig creates an LLM client for the configured provider.
// Returns LLMClient interface to enable dependency injection of mocks.
// Embeddings always use the OpenAI-compatible endpoint regardless of provider.
func NewFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	openaiClient, err := NewClient(&Config{
		Endpoint:     cfg.Endpoint,
		Model:        cfg.Model,
		EmbedModel:   cfg.EmbedModel,
		APIKey:       cfg.APIKey,
		ChatTimeout:  cfg.ChatTimeoutDuration(),
		EmbedTimeout: cfg.EmbedTimeoutDuration(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	switch cfg.Provider {
	case "", "openai":
		return openaiClient, nil
	case "anthropic":
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.ChatTimeoutDuration(), openaiClient, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
