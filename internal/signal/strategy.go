package signal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equisim/internal/backtest"
	"equisim/internal/domain"
	"equisim/internal/store"
	"equisim/internal/strategy"
	"equisim/internal/util"
)

// Compile-time interface check.
var _ backtest.SignalProvider = (*StrategyProvider)(nil)

// StrategyProvider derives signals by replaying a strategy over a symbol's
// bar history, strictly forward. The signal recorded for a date is
// computed before any later bar is fed to the strategy, so lookups can
// never see information from after the date they ask about.
//
// The replay covers a fixed [start, end] window chosen at construction and
// runs once per symbol, on first lookup.
type StrategyProvider struct {
	bars   store.BarStore
	strat  strategy.Strategy
	market string
	start  time.Time
	end    time.Time

	mu    sync.Mutex
	cache map[string]map[string]domain.SignalValue // symbol -> date key -> value
}

// NewStrategyProvider creates a provider that replays strat over bars in
// [start, end] for the given market.
func NewStrategyProvider(bars store.BarStore, strat strategy.Strategy, market string, start, end time.Time) *StrategyProvider {
	return &StrategyProvider{
		bars:   bars,
		strat:  strat,
		market: market,
		start:  start,
		end:    end,
		cache:  make(map[string]map[string]domain.SignalValue),
	}
}

// GetSignal returns the strategy's signal for the symbol on the as-of
// date. Dates outside the replay window, or bars the strategy held
// through, read as hold.
func (p *StrategyProvider) GetSignal(ctx context.Context, symbol string, asOf time.Time) (domain.SignalValue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byDate, ok := p.cache[symbol]
	if !ok {
		var err error
		byDate, err = p.replay(ctx, symbol)
		if err != nil {
			return domain.SignalHold, err
		}
		p.cache[symbol] = byDate
	}
	return byDate[util.DateKey(asOf)], nil
}

// Signals returns the full dated signal series the replay produced for a
// symbol, suitable for persisting to a SignalStore.
func (p *StrategyProvider) Signals(ctx context.Context, symbol string) ([]domain.Signal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signalsLocked(ctx, symbol)
}

// signalsLocked replays the strategy over the symbol's bars. The caller
// must hold p.mu: the strategy's accumulated state is not safe for
// concurrent replays.
func (p *StrategyProvider) signalsLocked(ctx context.Context, symbol string) ([]domain.Signal, error) {
	bars, err := p.bars.ReadBars(ctx, symbol, p.market, p.start, p.end)
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}
	if err := p.strat.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing strategy %s: %w", p.strat.Name(), err)
	}

	signals := make([]domain.Signal, 0, len(bars))
	for i := range bars {
		v, err := p.strat.OnBar(ctx, bars[i])
		if err != nil {
			return nil, fmt.Errorf("strategy %s on bar %s: %w", p.strat.Name(), util.DateKey(bars[i].Timestamp), err)
		}
		signals = append(signals, domain.Signal{
			StrategyID: p.strat.Name(),
			Symbol:     symbol,
			Date:       bars[i].Timestamp,
			Value:      v,
		})
	}
	return signals, nil
}

// replay runs the strategy forward over the symbol's bars and collects the
// non-hold signals by date.
func (p *StrategyProvider) replay(ctx context.Context, symbol string) (map[string]domain.SignalValue, error) {
	signals, err := p.signalsLocked(ctx, symbol)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]domain.SignalValue)
	for _, sig := range signals {
		if sig.Value != domain.SignalHold {
			byDate[util.DateKey(sig.Date)] = sig.Value
		}
	}
	return byDate, nil
}
