package gather

import (
	"context"
	"strings"
	"testing"
)

func TestDailyBarGathererName(t *testing.T) {
	g := NewDailyBarGatherer("k", "s", "", nil, []string{"AAPL"}, 100, 200, 3, "2020-01-01")
	if got := g.Name(); got != "daily-bars" {
		t.Errorf("Name() = %q, want %q", got, "daily-bars")
	}
}

func TestDailyBarGathererNoSymbols(t *testing.T) {
	g := NewDailyBarGatherer("k", "s", "", nil, nil, 100, 200, 3, "2020-01-01")
	if err := g.Run(context.Background()); err == nil {
		t.Error("Run() with no symbols should return an error")
	}
}

func TestDailyBarGathererBadStartDate(t *testing.T) {
	g := NewDailyBarGatherer("k", "s", "", nil, []string{"AAPL"}, 100, 200, 3, "not-a-date")
	err := g.Run(context.Background())
	if err == nil {
		t.Fatal("Run() with invalid start date should return an error")
	}
	if !strings.Contains(err.Error(), "parsing start date") {
		t.Errorf("error = %v, want start date parse error", err)
	}
}
