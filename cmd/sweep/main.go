// Command sweep runs a parameter grid of backtests for one symbol in
// parallel and ranks the results by net profit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	ossignal "os/signal"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"equisim/internal/backtest"
	"equisim/internal/config"
	"equisim/internal/report"
	"equisim/internal/signal"
	"equisim/internal/store"
	"equisim/internal/strategy/builtins"
	"equisim/internal/util"
)

const dateLayout = "2006-01-02"

type sweepResult struct {
	stopLoss   decimal.Decimal
	takeProfit decimal.Decimal
	res        *backtest.Result
	err        error
}

func main() {
	var (
		cfgPath  = flag.String("config", "config/equisim.yaml", "path to config file")
		symbol   = flag.String("symbol", "", "symbol to simulate (required)")
		startStr = flag.String("start", "", "start date YYYY-MM-DD (required)")
		endStr   = flag.String("end", "", "end date YYYY-MM-DD (required)")
		slList   = flag.String("stop-loss", "0,0.03,0.05,0.08", "comma-separated stop-loss fractions")
		tpList   = flag.String("take-profit", "0,0.10,0.15,0.20", "comma-separated take-profit fractions")
		shortWin = flag.Int("short", 20, "short SMA window")
		longWin  = flag.Int("long", 50, "long SMA window")
		workers  = flag.Int("workers", runtime.NumCPU(), "concurrent simulations")
	)
	flag.Parse()

	if *symbol == "" || *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	start, err := time.Parse(dateLayout, *startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := time.Parse(dateLayout, *endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	stops, err := parseDecimals(*slList)
	if err != nil {
		log.Fatalf("invalid -stop-loss: %v", err)
	}
	targets, err := parseDecimals(*tpList)
	if err != nil {
		log.Fatalf("invalid -take-profit: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	strat := builtins.NewSMACross(*shortWin, *longWin)
	if err := strat.Init(ctx); err != nil {
		log.Fatalf("strategy init failed: %v", err)
	}

	// One provider shared across all workers; the replay cache is
	// mutex-protected, so the bar series is only loaded once.
	provider := signal.NewStrategyProvider(bars, strat, "us", start, end)
	runner := backtest.NewRunner(bars, provider)

	base, err := cfg.Backtest.EngineConfig(*symbol, start, end)
	if err != nil {
		log.Fatalf("invalid backtest config: %v", err)
	}

	// Build the grid, then feed it to the worker pool.
	var grid []backtest.Config
	for _, sl := range stops {
		for _, tp := range targets {
			c := base
			c.StopLoss = sl
			c.TakeProfit = tp
			grid = append(grid, c)
		}
	}

	slog.Info("starting sweep",
		"symbol", *symbol,
		"combinations", len(grid),
		"workers", *workers,
	)
	sweepStart := time.Now()

	jobs := make(chan backtest.Config, len(grid))
	for _, c := range grid {
		jobs <- c
	}
	close(jobs)

	results := make(chan sweepResult, len(grid))
	var wg sync.WaitGroup
	for w := 0; w < min(*workers, len(grid)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				res, err := runner.Run(ctx, c)
				results <- sweepResult{
					stopLoss:   c.StopLoss,
					takeProfit: c.TakeProfit,
					res:        res,
					err:        err,
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	var ok []sweepResult
	for r := range results {
		if r.err != nil {
			slog.Error("combination failed",
				"stopLoss", r.stopLoss.String(),
				"takeProfit", r.takeProfit.String(),
				"err", r.err,
			)
			continue
		}
		ok = append(ok, r)
	}

	sort.Slice(ok, func(i, j int) bool {
		return ok[i].res.Metrics.NetProfit.GreaterThan(ok[j].res.Metrics.NetProfit)
	})

	fmt.Printf("\n%s  %s — %s  (%d combinations, %s)\n\n",
		*symbol, *startStr, *endStr, len(grid), time.Since(sweepStart).Round(time.Millisecond))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Rank", "Stop", "Target", "Trades", "Win Rate", "Net Profit", "Max DD", "Sharpe")
	for i, r := range ok {
		m := r.res.Metrics
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmtFraction(r.stopLoss),
			fmtFraction(r.takeProfit),
			fmt.Sprintf("%d", m.TotalTrades),
			report.FormatPercent(m.WinRate),
			report.FormatMoney(m.NetProfit),
			report.FormatPercent(m.MaxDrawdownPct),
			report.FormatRatio(m.SharpeRatio),
		)
	}
	table.Render()
}

// parseDecimals parses a comma-separated list of decimal fractions.
func parseDecimals(s string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

// fmtFraction renders a fraction as a percentage, with "off" for zero.
func fmtFraction(d decimal.Decimal) string {
	if d.Sign() == 0 {
		return "off"
	}
	return d.Mul(decimal.NewFromInt(100)).String() + "%"
}
