// Package builtins provides built-in strategy implementations.
package builtins

import (
	"context"
	"fmt"

	"equisim/internal/domain"
	"equisim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It emits
// a buy signal when the short-period SMA crosses above the long-period
// SMA, and a sell signal when it crosses back below. Until longPeriod bars
// have been seen it emits hold.
type SMACross struct {
	shortPeriod int
	longPeriod  int

	closes     []float64
	shortAbove bool
	primed     bool
}

// NewSMACross creates an SMACross strategy with the specified short and
// long moving average periods. short must be less than long.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// Init clears the accumulated price window so the strategy can be replayed.
func (s *SMACross) Init(_ context.Context) error {
	if s.shortPeriod <= 0 || s.longPeriod <= s.shortPeriod {
		return fmt.Errorf("sma-cross: need 0 < short < long, got short=%d long=%d", s.shortPeriod, s.longPeriod)
	}
	s.closes = s.closes[:0]
	s.shortAbove = false
	s.primed = false
	return nil
}

// OnBar appends the bar's close and checks for a crossover once both
// averages are defined. The first bar where both are defined only records
// which side the short average is on; signals start with the next bar.
func (s *SMACross) OnBar(_ context.Context, bar domain.Bar) (domain.SignalValue, error) {
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) > s.longPeriod {
		s.closes = s.closes[1:]
	}
	if len(s.closes) < s.longPeriod {
		return domain.SignalHold, nil
	}

	shortSMA := mean(s.closes[len(s.closes)-s.shortPeriod:])
	longSMA := mean(s.closes)
	above := shortSMA > longSMA

	if !s.primed {
		s.primed = true
		s.shortAbove = above
		return domain.SignalHold, nil
	}

	switch {
	case above && !s.shortAbove:
		s.shortAbove = true
		return domain.SignalBuy, nil
	case !above && s.shortAbove:
		s.shortAbove = false
		return domain.SignalSell, nil
	default:
		return domain.SignalHold, nil
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
