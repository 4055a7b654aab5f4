package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"equisim/internal/domain"
	"equisim/internal/util"
)

// BarReader is the slice of the bar store the runner depends on.
type BarReader interface {
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)
}

// SignalProvider supplies the point-in-time signal for a symbol. An
// implementation must only use information available at or before asOf;
// looking ahead silently invalidates every result built on it.
type SignalProvider interface {
	GetSignal(ctx context.Context, symbol string, asOf time.Time) (domain.SignalValue, error)
}

// Result is the complete output of one run: the trade ledger, the equity
// curve, and the derived metrics. It is assembled once, after the run
// completes, and not mutated afterward.
type Result struct {
	Config      Config
	Trades      []domain.Trade
	Equity      []domain.EquityPoint
	Metrics     Metrics
	FinalEquity decimal.Decimal
	StartedAt   time.Time
	Duration    time.Duration
}

// Runner orchestrates a backtest: it validates the config, pulls bars and
// signals from the providers, then hands the pure in-memory series to the
// Simulator and Analyzer. All provider I/O happens before the simulation
// loop starts.
//
// A Runner is safe for concurrent use: independent runs share only
// read-only access to the providers.
type Runner struct {
	bars    BarReader
	signals SignalProvider
	log     *slog.Logger
}

// NewRunner creates a Runner over the given providers.
func NewRunner(bars BarReader, signals SignalProvider) *Runner {
	return &Runner{
		bars:    bars,
		signals: signals,
		log:     slog.Default().With("component", "backtest"),
	}
}

// Run executes one backtest and returns its Result. Configuration and
// data-sufficiency problems surface as *ConfigError and
// *InsufficientDataError; a failed signal lookup for a single date is
// logged and treated as hold.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Market = cfg.market()
	started := time.Now()

	bars, err := r.bars.ReadBars(ctx, cfg.Symbol, string(cfg.Market), cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", cfg.Symbol, err)
	}
	if len(bars) < cfg.minBars() {
		return nil, &InsufficientDataError{
			Symbol:  cfg.Symbol,
			Start:   cfg.Start,
			End:     cfg.End,
			Bars:    len(bars),
			MinBars: cfg.minBars(),
		}
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	signals, err := r.prefetchSignals(ctx, cfg.Symbol, bars)
	if err != nil {
		return nil, err
	}

	trades, equity, err := NewSimulator(cfg).Run(bars, signals)
	if err != nil {
		return nil, err
	}
	metrics := NewAnalyzer(cfg.RiskFreeRate).Analyze(trades, equity, cfg.InitialCapital)

	final := cfg.InitialCapital
	if len(equity) > 0 {
		final = equity[len(equity)-1].Equity
	}

	r.log.Info("run complete",
		"symbol", cfg.Symbol,
		"bars", len(bars),
		"trades", len(trades),
		"netProfit", metrics.NetProfit.StringFixed(2),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return &Result{
		Config:      cfg,
		Trades:      trades,
		Equity:      equity,
		Metrics:     metrics,
		FinalEquity: final,
		StartedAt:   started,
		Duration:    time.Since(started),
	}, nil
}

// prefetchSignals resolves the signal for every bar date before the
// simulation loop runs, so the hot loop stays pure CPU. A lookup failure
// for one date degrades to hold; only context cancellation aborts.
func (r *Runner) prefetchSignals(ctx context.Context, symbol string, bars []domain.Bar) (map[string]domain.SignalValue, error) {
	signals := make(map[string]domain.SignalValue, len(bars))
	for i := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := bars[i].Timestamp
		v, err := r.signals.GetSignal(ctx, symbol, date)
		if err != nil {
			r.log.Warn("signal lookup failed, treating as hold",
				"symbol", symbol,
				"date", util.DateKey(date),
				"err", err,
			)
			continue
		}
		if v != domain.SignalHold {
			signals[util.DateKey(date)] = v
		}
	}
	return signals, nil
}
