package strategy_test

import (
	"context"
	"testing"
	"time"

	"equisim/internal/domain"
	"equisim/internal/strategy"
	"equisim/internal/strategy/builtins"
)

func TestRegistry(t *testing.T) {
	r := strategy.NewRegistry()

	if names := r.List(); len(names) != 0 {
		t.Errorf("empty registry List() = %v, want empty", names)
	}
	if _, ok := r.Get("sma-cross"); ok {
		t.Error("Get on empty registry should report not found")
	}

	r.Register(builtins.NewSMACross(5, 20))

	s, ok := r.Get("sma-cross")
	if !ok {
		t.Fatal("Get(sma-cross) should find the registered strategy")
	}
	if s.Name() != "sma-cross" {
		t.Errorf("Name() = %q, want %q", s.Name(), "sma-cross")
	}
	if names := r.List(); len(names) != 1 || names[0] != "sma-cross" {
		t.Errorf("List() = %v, want [sma-cross]", names)
	}
}

func TestSMACrossInitValidation(t *testing.T) {
	bad := builtins.NewSMACross(20, 5)
	if err := bad.Init(context.Background()); err == nil {
		t.Error("Init should reject short >= long")
	}
	good := builtins.NewSMACross(2, 3)
	if err := good.Init(context.Background()); err != nil {
		t.Errorf("Init returned error for valid periods: %v", err)
	}
}

func TestSMACrossSignals(t *testing.T) {
	ctx := context.Background()
	s := builtins.NewSMACross(2, 3)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Closes chosen so the 2-bar SMA starts below the 3-bar SMA, crosses
	// above on the rally, and back below on the collapse.
	closes := []float64{10, 9, 8, 12, 16, 6, 2}
	want := []domain.SignalValue{
		domain.SignalHold, // warmup
		domain.SignalHold, // warmup
		domain.SignalHold, // first defined bar only primes the side
		domain.SignalBuy,  // short SMA crosses above
		domain.SignalHold, // still above
		domain.SignalSell, // crosses below
		domain.SignalHold, // still below
	}

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bar := domain.Bar{
			Symbol:    "TEST",
			Timestamp: day.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
		got, err := s.OnBar(ctx, bar)
		if err != nil {
			t.Fatalf("OnBar(%d): %v", i, err)
		}
		if got != want[i] {
			t.Errorf("bar %d (close %.0f): signal = %s, want %s", i, c, got, want[i])
		}
	}
}

func TestSMACrossReplayAfterInit(t *testing.T) {
	ctx := context.Background()
	s := builtins.NewSMACross(2, 3)

	run := func() []domain.SignalValue {
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init: %v", err)
		}
		closes := []float64{10, 9, 8, 12, 16}
		day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		out := make([]domain.SignalValue, 0, len(closes))
		for i, c := range closes {
			v, err := s.OnBar(ctx, domain.Bar{Symbol: "TEST", Timestamp: day.AddDate(0, 0, i), Close: c})
			if err != nil {
				t.Fatalf("OnBar: %v", err)
			}
			out = append(out, v)
		}
		return out
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay diverged at bar %d: %s vs %s", i, first[i], second[i])
		}
	}
}
