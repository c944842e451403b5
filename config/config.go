package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the club assistant.
// Environment variables are parsed from the PEACOCK_ prefix.
type Config struct {
	// Peacock API
	APIBaseURL    string `envconfig:"API_BASE_URL" default:"http://localhost:3001"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"peacock"`

	// Anthropic
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY" default:""`
	Model           string `envconfig:"MODEL" default:"claude-sonnet-4-20250514"`

	// Embeddings: "mock" needs no credentials, "openai" needs the API key.
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"mock"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`

	// Memory index
	DBPath          string `envconfig:"DB_PATH" default:"peacock.db"`
	MaxTransactions int    `envconfig:"MAX_TRANSACTIONS" default:"20000"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// New creates a Config by parsing environment variables.
// Example: PEACOCK_API_BASE_URL, PEACOCK_EMBED_PROVIDER.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("PEACOCK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.EmbedProvider {
	case "mock":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("PEACOCK_OPENAI_API_KEY is required when PEACOCK_EMBED_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported PEACOCK_EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	if c.MaxTransactions <= 0 {
		return fmt.Errorf("PEACOCK_MAX_TRANSACTIONS must be positive")
	}
	return nil
}
