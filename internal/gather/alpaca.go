package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"equisim/internal/domain"
	"equisim/internal/store"
	"equisim/internal/util"
)

var _ Gatherer = (*DailyBarGatherer)(nil)

// retryBaseDelay is the initial backoff for failed Alpaca API calls.
const retryBaseDelay = 2 * time.Second

// DailyBarGatherer fetches daily OHLCV bars for a fixed list of US equity
// symbols via the Alpaca market-data API and writes them to the bar store.
type DailyBarGatherer struct {
	client      *marketdata.Client
	store       store.BarStore
	symbols     []string
	batchSize   int // symbols per API call
	maxAttempts int // retry attempts per batch
	limiter     *util.RateLimiter
	startDate   string
	log         *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer configured with the given
// Alpaca credentials, target store, symbol list, and batch parameters.
func NewDailyBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, batchSize, rateLimitPerMin, maxAttempts int, startDate string) *DailyBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &DailyBarGatherer{
		client:      marketdata.NewClient(opts),
		store:       s,
		symbols:     symbols,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		limiter:     util.NewRateLimiter(rateLimitPerMin),
		startDate:   startDate,
		log:         slog.Default().With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches daily bars for the configured symbols from the start date
// through yesterday and writes them to the store. Writes are merge-on-write,
// so re-running is idempotent.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}

	// Daily bars for today are incomplete until the session closes, so
	// only fetch through the previous day.
	end := time.Now().UTC().AddDate(0, 0, -1)

	batchSize := g.batchSize
	if batchSize <= 0 {
		batchSize = len(g.symbols)
	}

	var batches [][]string
	for i := 0; i < len(g.symbols); i += batchSize {
		batches = append(batches, g.symbols[i:min(i+batchSize, len(g.symbols))])
	}

	g.log.Info("starting daily bar fetch",
		"symbols", len(g.symbols),
		"batches", len(batches),
		"start", g.startDate,
		"end", end.Format("2006-01-02"),
	)

	runStart := time.Now()
	totalBars := 0

	for i, batch := range batches {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, g.maxAttempts, retryBaseDelay, func() error {
			var fetchErr error
			bars, fetchErr = g.fetchMultiBars(ctx, batch, start, end)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("fetching batch %d/%d: %w", i+1, len(batches), err)
		}

		if len(bars) > 0 {
			if err := g.store.WriteBars(ctx, bars, "us"); err != nil {
				return fmt.Errorf("writing batch %d/%d: %w", i+1, len(batches), err)
			}
		}

		totalBars += len(bars)
		g.log.Info("batch done",
			"batch", fmt.Sprintf("%d/%d", i+1, len(batches)),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("complete",
		"bars", totalBars,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API call.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
