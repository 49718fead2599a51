package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for archive-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// CORSOriginsStr is a comma-separated list of allowed browser origins.
	CORSOriginsStr string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`

	// CORSOrigins is the parsed list from CORSOriginsStr (not from config file).
	CORSOrigins []string `yaml:"-"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Qdrant vector index configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// LLM (structuring oracle) configuration
	LLM LLMConfig `yaml:"llm"`

	// Ingest pipeline configuration
	Ingest IngestConfig `yaml:"ingest"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"abyssal"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"abyssal_archive"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// QdrantConfig holds vector index configuration.
type QdrantConfig struct {
	Host       string `yaml:"host" env:"QDRANT_HOST" env-default:"localhost"`
	Port       int    `yaml:"port" env:"QDRANT_PORT" env-default:"6333"`
	Collection string `yaml:"collection" env:"QDRANT_COLLECTION" env-default:"knowledge_entries"`
	// EmbeddingDim must match the embedding model's output dimensionality.
	EmbeddingDim int `yaml:"embedding_dim" env:"EMBEDDING_DIM" env-default:"768"`
	// TimeoutSeconds bounds every call to the vector index.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"QDRANT_TIMEOUT_SECONDS" env-default:"15"`
}

// LLMConfig holds configuration for the structuring oracle.
// The default provider targets an OpenAI-compatible endpoint (Ollama exposes one
// at /v1); provider "anthropic" routes chat completions through the Anthropic API
// while embeddings stay on the OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider        string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint        string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"http://localhost:11434/v1"`
	Model           string `yaml:"model" env:"LLM_MODEL" env-default:"llama3"`
	EmbedModel      string `yaml:"embed_model" env:"LLM_EMBED_MODEL" env-default:"nomic-embed-text"`
	APIKey          string `yaml:"-" env:"LLM_API_KEY"`       // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	AnthropicModel  string `yaml:"anthropic_model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-20250514"`
	ChatTimeout     int    `yaml:"chat_timeout_seconds" env:"LLM_CHAT_TIMEOUT_SECONDS" env-default:"120"`
	EmbedTimeout    int    `yaml:"embed_timeout_seconds" env:"LLM_EMBED_TIMEOUT_SECONDS" env-default:"60"`
}

// IngestConfig holds ingest pipeline settings.
type IngestConfig struct {
	// FetchTimeoutSeconds bounds source URL retrieval.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" env:"INGEST_FETCH_TIMEOUT_SECONDS" env-default:"30"`
	// MaxBodyBytes caps how much of a fetched page is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"INGEST_MAX_BODY_BYTES" env-default:"5242880"`
}

// ChatTimeoutDuration returns the chat timeout as a time.Duration.
func (c *LLMConfig) ChatTimeoutDuration() time.Duration {
	return time.Duration(c.ChatTimeout) * time.Second
}

// EmbedTimeoutDuration returns the embedding timeout as a time.Duration.
func (c *LLMConfig) EmbedTimeoutDuration() time.Duration {
	return time.Duration(c.EmbedTimeout) * time.Second
}

// BaseURL returns the Qdrant REST endpoint.
func (c *QdrantConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Timeout returns the vector index call timeout as a time.Duration.
func (c *QdrantConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.parseComplexFields()

	if cfg.Qdrant.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("qdrant embedding_dim must be positive, got %d", cfg.Qdrant.EmbeddingDim)
	}

	return cfg, nil
}

// LoadFromFile is Load with an explicit config path, used by tests.
func LoadFromFile(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.parseComplexFields()
	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() {
	c.CORSOrigins = c.CORSOrigins[:0]
	for _, origin := range strings.Split(c.CORSOriginsStr, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORSOrigins = append(c.CORSOrigins, trimmed)
		}
	}
}
