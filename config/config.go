// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the server. Values come from the
// environment, optionally seeded from a .env file by the caller.
type Config struct {
	Host  string `env:"HOST" envDefault:"0.0.0.0"`
	Port  int    `env:"PORT" envDefault:"8080"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	// Hint generation. Without an API key the hint feature is disabled
	// and hint requests resolve to the failure placeholder.
	HintBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	HintAPIKey  string `env:"OPENAI_API_KEY"`
	HintModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Optional ngrok tunnel for exposing a local server.
	NgrokEnabled   bool   `env:"NGROK_ENABLED" envDefault:"false"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
