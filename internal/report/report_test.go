package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"equisim/internal/backtest"
	"equisim/internal/domain"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1234.5", "$1,234.50"},
		{"-1234.5", "-$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"999.999", "$1,000.00"},
		{"12.3456", "$12.35"},
	}
	for _, tt := range tests {
		got := FormatMoney(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(12.3456); got != "12.35%" {
		t.Errorf("FormatPercent = %q, want %q", got, "12.35%")
	}
}

func TestWriteRendersSections(t *testing.T) {
	entry := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	trade := domain.Trade{
		Symbol:      "AAPL",
		EntryDate:   entry,
		EntryPrice:  decimal.RequireFromString("100"),
		ExitDate:    exit,
		ExitPrice:   decimal.RequireFromString("110"),
		Shares:      50,
		ExitReason:  domain.ExitSignalChange,
		GrossProfit: decimal.RequireFromString("500"),
		Commission:  decimal.RequireFromString("10"),
		Slippage:    decimal.RequireFromString("0.21"),
		NetProfit:   decimal.RequireFromString("489.79"),
		ReturnPct:   9.79,
		HoldingDays: 8,
	}

	res := &backtest.Result{
		Config: backtest.Config{
			Symbol:         "AAPL",
			Start:          entry,
			End:            exit,
			InitialCapital: decimal.RequireFromString("100000"),
		},
		Trades:      []domain.Trade{trade},
		Metrics:     backtest.Metrics{TotalTrades: 1, WinningTrades: 1, WinRate: 100, NetProfit: trade.NetProfit, BestTrade: &trade, WorstTrade: &trade},
		FinalEquity: decimal.RequireFromString("100489.79"),
		Duration:    25 * time.Millisecond,
	}

	var sb strings.Builder
	Write(&sb, res)
	out := sb.String()

	for _, want := range []string{
		"AAPL",
		"$100,000.00",
		"$100,489.79",
		"signal_change",
		"Win Rate",
		"Trades (1):",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestWriteNoTrades(t *testing.T) {
	res := &backtest.Result{
		Config: backtest.Config{
			Symbol:         "MSFT",
			Start:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			End:            time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
			InitialCapital: decimal.RequireFromString("50000"),
		},
		FinalEquity: decimal.RequireFromString("50000"),
	}

	var sb strings.Builder
	Write(&sb, res)
	if !strings.Contains(sb.String(), "No trades executed.") {
		t.Errorf("expected no-trades notice, got:\n%s", sb.String())
	}
}
