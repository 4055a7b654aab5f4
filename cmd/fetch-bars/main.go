// Command fetch-bars downloads daily OHLCV bars from the Alpaca
// market-data API into the local Parquet store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"equisim/internal/config"
	"equisim/internal/gather"
	"equisim/internal/store"
	"equisim/internal/util"
)

func main() {
	var (
		cfgPath = flag.String("config", "config/equisim.yaml", "path to config file")
		symbols = flag.String("symbols", "", "comma-separated symbols (overrides config)")
		start   = flag.String("start", "", "start date YYYY-MM-DD (overrides config)")
	)
	flag.Parse()

	if p := os.Getenv("EQUISIM_CONFIG"); p != "" && *cfgPath == "config/equisim.yaml" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	symbolList := cfg.Gather.Symbols
	if *symbols != "" {
		symbolList = nil
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbolList = append(symbolList, strings.ToUpper(s))
			}
		}
	}

	startDate := cfg.Gather.StartDate
	if *start != "" {
		startDate = *start
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	gatherer := gather.NewDailyBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		pstore,
		symbolList,
		cfg.Gather.BatchSize,
		cfg.Gather.RateLimitPerMin,
		cfg.Gather.MaxAttempts,
		startDate,
	)

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
}
