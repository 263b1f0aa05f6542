package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the single immutable configuration struct. It is built once
// at startup and passed explicitly to every component that needs it.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// SessionSecret signs session JWTs.
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	// Coinbase Commerce credentials: the API key authenticates outbound
	// charge creation, the shared secret verifies inbound
	// /commerce-notification webhooks.
	CommerceAPIKey    string `env:"COMMERCE_API_KEY,required,notEmpty"`
	CommerceAPISecret string `env:"COMMERCE_API_SECRET,required,notEmpty"`

	// Coinbase API credentials: used for withdrawals (send money,
	// exchange rates) and to verify inbound /send-money webhooks.
	CoinbaseAPIKey    string `env:"COINBASE_API_KEY,required,notEmpty"`
	CoinbaseAPISecret string `env:"COINBASE_API_SECRET,required,notEmpty"`
	CoinbaseAccountID string `env:"COINBASE_ACCOUNT_ID,required,notEmpty"`

	CommerceBaseURL string `env:"COMMERCE_BASE_URL" envDefault:"https://api.commerce.coinbase.com"`
	CoinbaseBaseURL string `env:"COINBASE_BASE_URL" envDefault:"https://api.coinbase.com"`

	// BaseURL builds the redirect/cancel URLs on hosted checkout pages.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	StartingBalanceCents int64 `env:"STARTING_BALANCE_CENTS" envDefault:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
