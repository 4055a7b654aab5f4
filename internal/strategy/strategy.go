// Package strategy defines the Strategy interface for rule-based signal
// generation and provides a Registry for managing multiple strategy
// implementations.
package strategy

import (
	"context"
	"sort"

	"equisim/internal/domain"
)

// Strategy is the interface all signal-generating strategies implement.
// A strategy receives bars strictly in ascending date order and emits at
// most one signal per bar, using only the bars it has seen so far.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Init resets any accumulated state so the strategy can be replayed
	// over a fresh bar series.
	Init(ctx context.Context) error

	// OnBar consumes the next bar and returns the signal for that bar's
	// date. Strategies warming up return hold.
	OnBar(ctx context.Context, bar domain.Bar) (domain.SignalValue, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates
// whether the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
