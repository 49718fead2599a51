package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient routes chat completions through the Anthropic API while
// delegating embeddings to an OpenAI-compatible client (Anthropic has no
// embeddings endpoint).
type AnthropicClient struct {
	client      *anthropic.Client
	embedder    *Client
	model       string
	chatTimeout time.Duration
	logger      *zap.Logger
}

// NewAnthropicClient creates a chat client backed by the Anthropic API.
// The embedder must be a configured OpenAI-compatible client.
func NewAnthropicClient(apiKey, model string, chatTimeout time.Duration, embedder *Client, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if chatTimeout == 0 {
		chatTimeout = 120 * time.Second
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(apiKey),
		embedder:    embedder,
		model:       model,
		chatTimeout: chatTimeout,
		logger:      logger.Named("llm.anthropic"),
	}, nil
}

// GenerateResponse generates a chat completion response.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	temp := float32(temperature)
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      systemMessage,
		MaxTokens:   4096,
		Temperature: &temp,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	if len(resp.Content) == 0 {
		return "", NewError(ErrorTypeUnparseable, "no content in response", false, nil)
	}

	return resp.Content[0].GetText(), nil
}

// CreateEmbedding delegates to the OpenAI-compatible embedding client.
func (c *AnthropicClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	return c.embedder.CreateEmbedding(ctx, input)
}

// GetModel returns the configured chat model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
