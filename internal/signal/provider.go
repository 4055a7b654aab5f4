// Package signal provides point-in-time signal providers for the
// simulation engine. Every provider answers "what was the signal for this
// symbol on this date" using only information available at or before that
// date; absence of a signal always reads as hold.
package signal

import (
	"context"
	"time"

	"equisim/internal/backtest"
	"equisim/internal/domain"
	"equisim/internal/store"
	"equisim/internal/util"
)

// Compile-time interface checks.
var _ backtest.SignalProvider = (*StoreProvider)(nil)
var _ backtest.SignalProvider = (Fixed)(nil)

// StoreProvider serves signals previously persisted to a SignalStore,
// keyed by the exact bar date. Dates with no stored signal read as hold.
type StoreProvider struct {
	store      store.SignalStore
	strategyID string
}

// NewStoreProvider creates a StoreProvider reading the given strategy's
// signal history.
func NewStoreProvider(s store.SignalStore, strategyID string) *StoreProvider {
	return &StoreProvider{
		store:      s,
		strategyID: strategyID,
	}
}

// GetSignal returns the stored signal for the symbol on the as-of date, or
// hold if none was recorded.
func (p *StoreProvider) GetSignal(ctx context.Context, symbol string, asOf time.Time) (domain.SignalValue, error) {
	sig, err := p.store.GetSignalAt(ctx, p.strategyID, symbol, asOf)
	if err != nil {
		return domain.SignalHold, err
	}
	if sig == nil {
		return domain.SignalHold, nil
	}
	return sig.Value, nil
}

// Fixed is a deterministic in-memory provider keyed by UTC date string.
// It is used in tests and for hand-built scenarios.
type Fixed map[string]domain.SignalValue

// GetSignal returns the fixed signal for the date, or hold if absent.
func (f Fixed) GetSignal(_ context.Context, _ string, asOf time.Time) (domain.SignalValue, error) {
	return f[util.DateKey(asOf)], nil
}
