// Package config loads service configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Logging  LoggingConfig          `yaml:"logging"`
	Database DatabaseConfig         `yaml:"database"`
	OAuth    map[string]OAuthClient `yaml:"oauth"`
	AI       AIConfig               `yaml:"ai"`
	Render   RenderConfig           `yaml:"render"`
	Upload   UploadConfig           `yaml:"upload"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default: ":8080").
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level: debug, info, warn, error (default: info).
	Level string `yaml:"level"`

	// Format: json or text (default: json).
	Format string `yaml:"format"`
}

// DatabaseConfig configures the Postgres connection. With an empty DSN the
// service runs on in-memory stores.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// OAuthClient holds one provider's OAuth client configuration, keyed by
// provider id in the document.
type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
}

// AIConfig configures text-generation providers.
type AIConfig struct {
	AnthropicModel string `yaml:"anthropic_model"`
	GeminiModel    string `yaml:"gemini_model"`
	OpenAIModel    string `yaml:"openai_model"`
}

// RenderConfig configures the render pipeline.
type RenderConfig struct {
	// BudgetDollars caps estimated render cost per job; 0 disables the gate.
	BudgetDollars float64 `yaml:"budget_dollars"`

	// Retention is how long terminal jobs are kept (default: 168h).
	Retention time.Duration `yaml:"retention"`
}

// UploadConfig configures large media transfers.
type UploadConfig struct {
	// S3Enabled turns on s3:// source URL support via ambient AWS config.
	S3Enabled bool `yaml:"s3_enabled"`

	// Timeout bounds each upload phase request (default: 5m).
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Render: RenderConfig{
			Retention: 7 * 24 * time.Hour,
		},
		Upload: UploadConfig{
			Timeout: 5 * time.Minute,
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Render.BudgetDollars < 0 {
		return fmt.Errorf("config: render.budget_dollars must not be negative")
	}
	for provider, client := range c.OAuth {
		if client.ClientID == "" || client.TokenURL == "" {
			return fmt.Errorf("config: oauth.%s needs client_id and token_url", provider)
		}
	}
	return nil
}
