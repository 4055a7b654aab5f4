// Package domain defines the core data types shared across the simulation
// engine: bars, signals, trades, positions, and equity points.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market identifies the market a symbol trades in.
type Market string

const (
	MarketUS Market = "us"
	MarketCN Market = "cn"
)

// Bar is a single daily OHLCV bar as stored on disk.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// SignalValue is a discrete trading signal: sell (-1), hold (0), or buy (+1).
type SignalValue int

const (
	SignalSell SignalValue = -1
	SignalHold SignalValue = 0
	SignalBuy  SignalValue = 1
)

// String returns the lowercase label for the signal value.
func (v SignalValue) String() string {
	switch v {
	case SignalSell:
		return "sell"
	case SignalBuy:
		return "buy"
	default:
		return "hold"
	}
}

// Signal is a dated signal record emitted by a strategy for one symbol.
// Date identifies the bar the signal applies to; a provider must never
// return a signal whose Date is after the as-of date it was asked for.
type Signal struct {
	ID         int64
	StrategyID string
	Symbol     string
	Date       time.Time
	Value      SignalValue
	Strength   float64
	CreatedAt  time.Time
}

// ExitReason records why an open position was closed.
type ExitReason string

const (
	ExitSignalChange ExitReason = "signal_change"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTakeProfit   ExitReason = "take_profit"
	ExitEndOfPeriod  ExitReason = "end_of_period"
)

// Position is the simulator's open long position. It exists only while the
// state machine is long; it is discarded the moment a Trade is emitted.
type Position struct {
	Symbol     string
	EntryDate  time.Time
	EntryPrice decimal.Decimal
	Shares     int64
}

// Trade is one completed round trip. It is created exactly once, when a
// position closes, and never mutated afterward. Money fields are decimal to
// keep P&L accumulation exact across many compounded trades.
type Trade struct {
	Symbol      string
	EntryDate   time.Time
	EntryPrice  decimal.Decimal
	ExitDate    time.Time
	ExitPrice   decimal.Decimal
	Shares      int64
	ExitReason  ExitReason
	GrossProfit decimal.Decimal
	Commission  decimal.Decimal
	Slippage    decimal.Decimal
	NetProfit   decimal.Decimal
	ReturnPct   float64
	HoldingDays int
}

// EquityPoint is the total account equity at the close of one bar: cash when
// flat, cash plus the marked-to-market value of the open position when long.
type EquityPoint struct {
	Date   time.Time
	Equity decimal.Decimal
}
