// Package store persists and retrieves the engine's durable data: daily
// bars in Parquet files and signal history plus run summaries in SQLite.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"equisim/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market.
	WriteBars(ctx context.Context, bars []domain.Bar, market string) error

	// ReadBars returns bars for the symbol within [start, end], in
	// ascending date order.
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// SignalStore persists and retrieves dated trading signals.
type SignalStore interface {
	// SaveSignals upserts a batch of signals keyed by
	// (strategy, symbol, date).
	SaveSignals(ctx context.Context, signals []domain.Signal) error

	// GetSignalAt returns the signal a strategy recorded for a symbol on
	// the given date, or nil if none exists.
	GetSignalAt(ctx context.Context, strategyID, symbol string, date time.Time) (*domain.Signal, error)

	// ListSignals returns a strategy's most recent signals for a symbol,
	// newest first, up to limit.
	ListSignals(ctx context.Context, strategyID, symbol string, limit int) ([]domain.Signal, error)
}

// RunSummary is the persisted record of one completed backtest run.
type RunSummary struct {
	ID             int64
	Symbol         string
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	NetProfit      decimal.Decimal
	TotalTrades    int
	WinRate        float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	CreatedAt      time.Time
}

// RunStore persists backtest run summaries.
type RunStore interface {
	// SaveRun inserts a run summary and returns its assigned ID.
	SaveRun(ctx context.Context, run *RunSummary) (int64, error)

	// ListRuns returns the most recent runs for a symbol, newest first,
	// up to limit. An empty symbol matches all runs.
	ListRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error)
}
