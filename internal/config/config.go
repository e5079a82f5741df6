// Package config loads service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the exchange service. Defaults give a
// runnable in-memory instance with the launch curve calibration.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":3001"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// UseMemory selects in-memory stores over Postgres/ClickHouse.
	UseMemory     bool   `envconfig:"USE_MEMORY" default:"true"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN" default:""`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN" default:""`

	SeasonID   int     `envconfig:"SEASON_ID" default:"1"`
	BasePrice  float64 `envconfig:"BASE_PRICE" default:"50"`
	Multiplier float64 `envconfig:"MULTIPLIER" default:"1.0003"`

	SellFeePct   float64 `envconfig:"SELL_FEE_PCT" default:"0.05"`
	BurnSplit    float64 `envconfig:"BURN_SPLIT" default:"0.5"`
	FeeAccountID string  `envconfig:"FEE_ACCOUNT_ID" default:"treasury"`

	// BotSecret gates trade execution and admin endpoints.
	BotSecret string `envconfig:"BOT_SECRET" default:""`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Absence of a .env file is the normal case in production.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when USE_MEMORY=false")
	}
	if c.SellFeePct < 0 || c.SellFeePct >= 1 {
		return fmt.Errorf("SELL_FEE_PCT must be in [0, 1): got %v", c.SellFeePct)
	}
	if c.BurnSplit < 0 || c.BurnSplit > 1 {
		return fmt.Errorf("BURN_SPLIT must be in [0, 1]: got %v", c.BurnSplit)
	}
	if c.FeeAccountID == "" {
		return fmt.Errorf("FEE_ACCOUNT_ID must not be empty")
	}
	return nil
}
