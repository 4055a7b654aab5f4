// Package config loads the equisim YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"equisim/internal/backtest"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the equisim engine.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig holds parameters for the daily-bar gathering job.
type GatherConfig struct {
	StartDate       string   `yaml:"start_date"`
	Symbols         []string `yaml:"symbols"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxAttempts     int      `yaml:"max_attempts"`
}

// BacktestConfig holds the default simulation parameters. Money and
// fraction fields are decimal strings so they survive YAML parsing
// without float rounding.
type BacktestConfig struct {
	InitialCapital string  `yaml:"initial_capital"`
	Commission     string  `yaml:"commission"`
	Slippage       string  `yaml:"slippage"`
	PositionSize   string  `yaml:"position_size"`
	StopLoss       string  `yaml:"stop_loss"`
	TakeProfit     string  `yaml:"take_profit"`
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
	MinBars        int     `yaml:"min_bars"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority, the SDK's canonical names).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// EngineConfig converts the YAML defaults into a validated-ready engine
// config for one symbol and date range. It fails on malformed decimal
// strings; range and sign checks are left to the engine's own validation.
func (b BacktestConfig) EngineConfig(symbol string, start, end time.Time) (backtest.Config, error) {
	cfg := backtest.Config{
		Symbol:       symbol,
		Start:        start,
		End:          end,
		RiskFreeRate: b.RiskFreeRate,
		MinBars:      b.MinBars,
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"initial_capital", b.InitialCapital, &cfg.InitialCapital},
		{"commission", b.Commission, &cfg.Commission},
		{"slippage", b.Slippage, &cfg.Slippage},
		{"position_size", b.PositionSize, &cfg.PositionSize},
		{"stop_loss", b.StopLoss, &cfg.StopLoss},
		{"take_profit", b.TakeProfit, &cfg.TakeProfit},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("parsing backtest.%s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return cfg, nil
}
