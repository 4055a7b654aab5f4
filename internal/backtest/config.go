// Package backtest implements the walk-forward trade simulation engine: a
// two-state (flat/long) machine replayed bar by bar over a daily price
// series, a performance analyzer over the resulting trades and equity
// curve, and a runner that wires price and signal providers to both.
package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"equisim/internal/domain"
)

// DefaultMinBars is the minimum number of bars a price series must have
// before a simulation is allowed to run.
const DefaultMinBars = 100

// Config holds the parameters for a single backtest run. It is treated as
// immutable once validated.
type Config struct {
	Symbol string
	Market domain.Market
	Start  time.Time
	End    time.Time

	// InitialCapital is the starting cash balance. Must be positive.
	InitialCapital decimal.Decimal

	// Commission is a flat currency amount charged per trade leg.
	Commission decimal.Decimal

	// Slippage is the fractional price impact per trade leg, charged as
	// legPrice * Slippage.
	Slippage decimal.Decimal

	// PositionSize is the fraction of available cash committed per entry.
	// Must be in (0, 1].
	PositionSize decimal.Decimal

	// StopLoss exits when the bar's low reaches entry*(1-StopLoss).
	// Zero disables the stop.
	StopLoss decimal.Decimal

	// TakeProfit exits when the bar's high reaches entry*(1+TakeProfit).
	// Zero disables the target.
	TakeProfit decimal.Decimal

	// MaxPositions is the number of concurrent positions. This engine
	// supports exactly one; zero means one.
	MaxPositions int

	// RiskFreeRate is the annual risk-free rate used by Sharpe/Sortino.
	RiskFreeRate float64

	// MinBars overrides DefaultMinBars when positive.
	MinBars int
}

// Validate checks the configuration and returns a ConfigError describing
// the first problem found.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return &ConfigError{Field: "symbol", Reason: "must not be empty"}
	}
	if !c.Start.Before(c.End) {
		return &ConfigError{Field: "start", Reason: "must be before end date"}
	}
	if c.InitialCapital.Sign() <= 0 {
		return &ConfigError{Field: "initial_capital", Reason: "must be positive"}
	}
	if c.Commission.Sign() < 0 {
		return &ConfigError{Field: "commission", Reason: "must not be negative"}
	}
	if c.Slippage.Sign() < 0 {
		return &ConfigError{Field: "slippage", Reason: "must not be negative"}
	}
	if c.PositionSize.Sign() <= 0 || c.PositionSize.GreaterThan(decimal.NewFromInt(1)) {
		return &ConfigError{Field: "position_size", Reason: "must be in (0, 1]"}
	}
	if c.StopLoss.Sign() < 0 || c.StopLoss.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &ConfigError{Field: "stop_loss", Reason: "must be in [0, 1)"}
	}
	if c.TakeProfit.Sign() < 0 {
		return &ConfigError{Field: "take_profit", Reason: "must not be negative"}
	}
	if c.MaxPositions > 1 {
		return &ConfigError{Field: "max_positions", Reason: "only one concurrent position is supported"}
	}
	if c.MinBars < 0 {
		return &ConfigError{Field: "min_bars", Reason: "must not be negative"}
	}
	return nil
}

// minBars returns the effective minimum bar count.
func (c *Config) minBars() int {
	if c.MinBars > 0 {
		return c.MinBars
	}
	return DefaultMinBars
}

// market returns the effective market, defaulting to US.
func (c *Config) market() domain.Market {
	if c.Market == "" {
		return domain.MarketUS
	}
	return c.Market
}
