package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client provides access to OpenAI-compatible LLM endpoints. Ollama exposes one
// at /v1, so the same client serves both hosted and local model services.
type Client struct {
	client       *openai.Client
	endpoint     string
	model        string
	embedModel   string
	chatTimeout  time.Duration
	embedTimeout time.Duration
	logger       *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint     string // Base URL, e.g., "http://localhost:11434/v1"
	Model        string // Chat model name, e.g., "llama3"
	EmbedModel   string // Embedding model name, e.g., "nomic-embed-text"
	APIKey       string // Optional for local endpoints
	ChatTimeout  time.Duration
	EmbedTimeout time.Duration
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	chatTimeout := cfg.ChatTimeout
	if chatTimeout == 0 {
		chatTimeout = 120 * time.Second
	}
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout == 0 {
		embedTimeout = 60 * time.Second
	}

	return &Client{
		client:       openai.NewClientWithConfig(clientConfig),
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		embedModel:   cfg.EmbedModel,
		chatTimeout:  chatTimeout,
		embedTimeout: embedTimeout,
		logger:       logger.Named("llm"),
	}, nil
}

// GenerateResponse generates a chat completion response.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(temperature),
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeUnparseable, "no choices in response", false, nil)
	}

	c.logger.Debug("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// CreateEmbedding generates an embedding vector for the input text.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	model := c.embedModel
	if model == "" {
		model = "nomic-embed-text"
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{input},
	})
	if err != nil {
		return nil, ClassifyError(err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, NewError(ErrorTypeUnparseable, "no embedding in response", false, nil)
	}

	return resp.Data[0].Embedding, nil
}

// GetModel returns the configured chat model name.
func (c *Client) GetModel() string {
	return c.model
}
