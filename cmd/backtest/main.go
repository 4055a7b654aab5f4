// Command backtest runs one walk-forward simulation for a symbol and date
// range, prints the report, and optionally persists the run summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"equisim/internal/backtest"
	"equisim/internal/config"
	"equisim/internal/report"
	"equisim/internal/signal"
	"equisim/internal/store"
	"equisim/internal/strategy/builtins"
	"equisim/internal/util"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		cfgPath   = flag.String("config", "config/equisim.yaml", "path to config file")
		symbol    = flag.String("symbol", "", "symbol to simulate (required)")
		startStr  = flag.String("start", "", "start date YYYY-MM-DD (required)")
		endStr    = flag.String("end", "", "end date YYYY-MM-DD (required)")
		stratID   = flag.String("strategy-id", "", "use signals stored under this strategy ID instead of replaying")
		shortWin  = flag.Int("short", 20, "short SMA window for replay")
		longWin   = flag.Int("long", 50, "long SMA window for replay")
		saveRun   = flag.Bool("save", false, "persist the run summary to SQLite")
		saveSigns = flag.Bool("save-signals", false, "persist replayed signals to SQLite")
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

	if p := os.Getenv("EQUISIM_CONFIG"); p != "" && *cfgPath == "config/equisim.yaml" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bars := store.NewParquetStore(cfg.Storage.DataDir)

	var db *store.SQLiteStore
	if *stratID != "" || *saveRun || *saveSigns {
		db, err = store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer db.Close()
	}

	var provider backtest.SignalProvider
	var replay *signal.StrategyProvider
	if *stratID != "" {
		provider = signal.NewStoreProvider(db, *stratID)
	} else {
		strat := builtins.NewSMACross(*shortWin, *longWin)
		if err := strat.Init(ctx); err != nil {
			log.Fatalf("strategy init failed: %v", err)
		}
		replay = signal.NewStrategyProvider(bars, strat, "us", start, end)
		provider = replay
	}

	engineCfg, err := cfg.Backtest.EngineConfig(*symbol, start, end)
	if err != nil {
		log.Fatalf("invalid backtest config: %v", err)
	}

	res, err := backtest.NewRunner(bars, provider).Run(ctx, engineCfg)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	report.Write(os.Stdout, res)

	if *saveSigns && replay != nil {
		signals, err := replay.Signals(ctx, *symbol)
		if err != nil {
			log.Fatalf("collecting signals: %v", err)
		}
		if err := db.SaveSignals(ctx, signals); err != nil {
			log.Fatalf("saving signals: %v", err)
		}
		fmt.Printf("\nSaved %d signals.\n", len(signals))
	}

	if *saveRun {
		id, err := db.SaveRun(ctx, &store.RunSummary{
			Symbol:         *symbol,
			Start:          start,
			End:            end,
			InitialCapital: engineCfg.InitialCapital,
			FinalEquity:    res.FinalEquity,
			NetProfit:      res.Metrics.NetProfit,
			TotalTrades:    res.Metrics.TotalTrades,
			WinRate:        res.Metrics.WinRate,
			MaxDrawdownPct: res.Metrics.MaxDrawdownPct,
			SharpeRatio:    res.Metrics.SharpeRatio,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			log.Fatalf("saving run: %v", err)
		}
		fmt.Printf("\nSaved run #%d.\n", id)
	}
}
