// Package report renders backtest results as console tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"equisim/internal/backtest"
	"equisim/internal/domain"
)

const dateLayout = "2006-01-02"

// Write renders the full result to w: a summary table, the metrics table,
// and the trade ledger.
func Write(w io.Writer, res *backtest.Result) {
	writeSummary(w, res)
	writeMetrics(w, &res.Metrics)
	writeTrades(w, res.Trades)
}

func writeSummary(w io.Writer, res *backtest.Result) {
	cfg := res.Config
	fmt.Fprintf(w, "\n%s  %s — %s  (%s)\n\n",
		cfg.Symbol,
		cfg.Start.Format(dateLayout),
		cfg.End.Format(dateLayout),
		res.Duration.Round(time.Millisecond),
	)

	table := tablewriter.NewWriter(w)
	table.Header("Initial Capital", "Final Equity", "Net Profit", "Return")
	table.Append(
		FormatMoney(cfg.InitialCapital),
		FormatMoney(res.FinalEquity),
		FormatMoney(res.Metrics.NetProfit),
		FormatPercent(res.Metrics.NetProfitPct),
	)
	table.Render()
}

func writeMetrics(w io.Writer, m *backtest.Metrics) {
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	table.Append("Total Trades", FormatInt(m.TotalTrades))
	table.Append("Winning / Losing", fmt.Sprintf("%d / %d", m.WinningTrades, m.LosingTrades))
	table.Append("Win Rate", FormatPercent(m.WinRate))
	table.Append("Avg Win", FormatMoney(m.AvgWin))
	table.Append("Avg Loss", FormatMoney(m.AvgLoss))
	table.Append("Profit Factor", FormatRatio(m.ProfitFactor))
	table.Append("Gross Profit", FormatMoney(m.GrossProfit))
	table.Append("Total Costs", FormatMoney(m.TotalCosts))
	table.Append("Max Drawdown", fmt.Sprintf("%s (%s)", FormatMoney(m.MaxDrawdown), FormatPercent(m.MaxDrawdownPct)))
	table.Append("Annualized Return", FormatPercent(m.AnnualizedReturn*100))
	table.Append("Annualized Volatility", FormatPercent(m.AnnualizedVolatility*100))
	table.Append("Sharpe Ratio", FormatRatio(m.SharpeRatio))
	table.Append("Sortino Ratio", FormatRatio(m.SortinoRatio))
	table.Append("Max Consecutive Wins", FormatInt(m.ConsecutiveWins))
	table.Append("Max Consecutive Losses", FormatInt(m.ConsecutiveLosses))
	if m.BestTrade != nil {
		table.Append("Best Trade", tradeBrief(m.BestTrade))
	}
	if m.WorstTrade != nil {
		table.Append("Worst Trade", tradeBrief(m.WorstTrade))
	}
	table.Render()
}

func writeTrades(w io.Writer, trades []domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "\nNo trades executed.")
		return
	}

	fmt.Fprintf(w, "\nTrades (%d):\n", len(trades))

	table := tablewriter.NewWriter(w)
	table.Header("#", "Entry", "Exit", "Days", "Shares", "Entry $", "Exit $", "Net P&L", "Return", "Reason")
	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.EntryDate.Format(dateLayout),
			t.ExitDate.Format(dateLayout),
			fmt.Sprintf("%d", t.HoldingDays),
			FormatInt(int(t.Shares)),
			t.EntryPrice.StringFixed(2),
			t.ExitPrice.StringFixed(2),
			FormatMoney(t.NetProfit),
			FormatPercent(t.ReturnPct),
			string(t.ExitReason),
		)
	}
	table.Render()
}

// tradeBrief summarizes one trade for the metrics table.
func tradeBrief(t *domain.Trade) string {
	return fmt.Sprintf("%s on %s (%s)",
		FormatMoney(t.NetProfit),
		t.EntryDate.Format(dateLayout),
		FormatPercent(t.ReturnPct),
	)
}
