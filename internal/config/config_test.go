package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/equisim/data"
  sqlite_path: "/tmp/equisim/equisim.db"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
gather:
  start_date: "2020-01-01"
  symbols: ["AAPL", "MSFT"]
  batch_size: 500
  rate_limit_per_min: 200
  max_attempts: 3
backtest:
  initial_capital: "100000"
  commission: "5"
  slippage: "0.001"
  position_size: "0.95"
  stop_loss: "0.05"
  take_profit: "0.15"
  risk_free_rate: 0.02
  min_bars: 100
`)

	tmpFile, err := os.CreateTemp("", "equisim-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/equisim/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/equisim/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/equisim/equisim.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/equisim/equisim.db")
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q", cfg.Alpaca.APISecret, "test-secret")
	}
	if cfg.Alpaca.DataURL != "https://data.alpaca.markets" {
		t.Errorf("Alpaca.DataURL = %q, want %q", cfg.Alpaca.DataURL, "https://data.alpaca.markets")
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- Gather --
	if cfg.Gather.StartDate != "2020-01-01" {
		t.Errorf("Gather.StartDate = %q, want %q", cfg.Gather.StartDate, "2020-01-01")
	}
	if len(cfg.Gather.Symbols) != 2 || cfg.Gather.Symbols[0] != "AAPL" {
		t.Errorf("Gather.Symbols = %v, want [AAPL MSFT]", cfg.Gather.Symbols)
	}
	if cfg.Gather.BatchSize != 500 {
		t.Errorf("Gather.BatchSize = %d, want %d", cfg.Gather.BatchSize, 500)
	}
	if cfg.Gather.RateLimitPerMin != 200 {
		t.Errorf("Gather.RateLimitPerMin = %d, want %d", cfg.Gather.RateLimitPerMin, 200)
	}

	// -- Backtest --
	if cfg.Backtest.InitialCapital != "100000" {
		t.Errorf("Backtest.InitialCapital = %q, want %q", cfg.Backtest.InitialCapital, "100000")
	}
	if cfg.Backtest.Slippage != "0.001" {
		t.Errorf("Backtest.Slippage = %q, want %q", cfg.Backtest.Slippage, "0.001")
	}
	if cfg.Backtest.RiskFreeRate != 0.02 {
		t.Errorf("Backtest.RiskFreeRate = %f, want %f", cfg.Backtest.RiskFreeRate, 0.02)
	}
	if cfg.Backtest.MinBars != 100 {
		t.Errorf("Backtest.MinBars = %d, want %d", cfg.Backtest.MinBars, 100)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	tmpFile, err := os.CreateTemp("", "equisim-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}

func TestEngineConfig(t *testing.T) {
	b := BacktestConfig{
		InitialCapital: "100000",
		Commission:     "5",
		Slippage:       "0.001",
		PositionSize:   "0.95",
		StopLoss:       "0.05",
		TakeProfit:     "0.15",
		RiskFreeRate:   0.02,
		MinBars:        100,
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	cfg, err := b.EngineConfig("AAPL", start, end)
	if err != nil {
		t.Fatalf("EngineConfig() error: %v", err)
	}

	if cfg.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", cfg.Symbol)
	}
	if !cfg.InitialCapital.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("InitialCapital = %s, want 100000", cfg.InitialCapital)
	}
	if !cfg.Slippage.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("Slippage = %s, want 0.001", cfg.Slippage)
	}
	if cfg.RiskFreeRate != 0.02 {
		t.Errorf("RiskFreeRate = %f, want 0.02", cfg.RiskFreeRate)
	}
	if cfg.MinBars != 100 {
		t.Errorf("MinBars = %d, want 100", cfg.MinBars)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("converted config should validate: %v", err)
	}
}

func TestEngineConfigBadDecimal(t *testing.T) {
	b := BacktestConfig{InitialCapital: "not-a-number"}
	_, err := b.EngineConfig("AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("EngineConfig() with malformed decimal should return an error")
	}
}
