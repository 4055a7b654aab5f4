package backtest

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"equisim/internal/domain"
)

const (
	// tradingDaysPerYear is the annualization base for daily returns.
	tradingDaysPerYear = 252

	// ratioEpsilon floors the denominator of Sharpe/Sortino so degenerate
	// (zero-volatility) runs produce a finite ratio instead of an error.
	ratioEpsilon = 1e-9
)

// Metrics is the battery of risk/return statistics computed over one run.
// Money totals are decimal; ratios and statistics are float64.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	GrossProfit  decimal.Decimal
	TotalCosts   decimal.Decimal
	NetProfit    decimal.Decimal
	NetProfitPct float64

	AvgWin       decimal.Decimal
	AvgLoss      decimal.Decimal
	ProfitFactor float64

	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct float64

	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	SortinoRatio         float64

	BestTrade  *domain.Trade
	WorstTrade *domain.Trade

	ConsecutiveWins   int
	ConsecutiveLosses int
}

// Analyzer computes Metrics from a trade list and equity curve. It is a
// pure function of its inputs; the same trades and curve always produce
// the same metrics. One Analyzer serves both backtest results and live
// evaluation, so the formula set cannot drift between the two.
type Analyzer struct {
	riskFreeRate float64
}

// NewAnalyzer creates an Analyzer using the given annual risk-free rate.
func NewAnalyzer(riskFreeRate float64) *Analyzer {
	return &Analyzer{riskFreeRate: riskFreeRate}
}

// Analyze computes the full metrics battery. trades must be in
// chronological (entry-date) order, as emitted by the Simulator.
func (a *Analyzer) Analyze(trades []domain.Trade, equity []domain.EquityPoint, initialCapital decimal.Decimal) Metrics {
	m := Metrics{TotalTrades: len(trades)}
	m.analyzeTrades(trades)
	m.NetProfitPct = pctOf(m.NetProfit, initialCapital)
	a.analyzeEquity(&m, equity)
	return m
}

// analyzeTrades fills in the trade-level statistics: win/loss partition,
// money totals, averages, profit factor, extremes, and streaks. A trade
// with zero net profit is neither a win nor a loss and breaks both streaks.
func (m *Metrics) analyzeTrades(trades []domain.Trade) {
	var (
		sumWins, sumLosses decimal.Decimal
		winStreak          int
		lossStreak         int
	)

	for i := range trades {
		t := &trades[i]
		m.GrossProfit = m.GrossProfit.Add(t.GrossProfit)
		m.TotalCosts = m.TotalCosts.Add(t.Commission).Add(t.Slippage)
		m.NetProfit = m.NetProfit.Add(t.NetProfit)

		switch t.NetProfit.Sign() {
		case 1:
			m.WinningTrades++
			sumWins = sumWins.Add(t.NetProfit)
			winStreak++
			lossStreak = 0
		case -1:
			m.LosingTrades++
			sumLosses = sumLosses.Add(t.NetProfit)
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > m.ConsecutiveWins {
			m.ConsecutiveWins = winStreak
		}
		if lossStreak > m.ConsecutiveLosses {
			m.ConsecutiveLosses = lossStreak
		}

		// Strict comparisons keep the earliest trade on ties.
		if m.BestTrade == nil || t.NetProfit.GreaterThan(m.BestTrade.NetProfit) {
			m.BestTrade = t
		}
		if m.WorstTrade == nil || t.NetProfit.LessThan(m.WorstTrade.NetProfit) {
			m.WorstTrade = t
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = sumWins.Div(decimal.NewFromInt(int64(m.WinningTrades)))
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = sumLosses.Div(decimal.NewFromInt(int64(m.LosingTrades)))
	}
	if m.AvgLoss.Sign() != 0 {
		m.ProfitFactor = m.AvgWin.Div(m.AvgLoss.Abs()).InexactFloat64()
	}
}

// analyzeEquity fills in the curve-level statistics: max drawdown, daily
// return distribution, annualized return/volatility, Sharpe and Sortino.
func (a *Analyzer) analyzeEquity(m *Metrics, equity []domain.EquityPoint) {
	if len(equity) == 0 {
		return
	}

	// Max drawdown against the running peak, in exact arithmetic.
	peak := equity[0].Equity
	for _, p := range equity {
		if p.Equity.GreaterThan(peak) {
			peak = p.Equity
		}
		if dd := peak.Sub(p.Equity); dd.GreaterThan(m.MaxDrawdown) {
			m.MaxDrawdown = dd
		}
	}
	m.MaxDrawdownPct = pctOf(m.MaxDrawdown, equity[0].Equity)

	// Daily returns in float; ratios are statistical, not accounting.
	returns := make(stats.Float64Data, 0, len(equity)-1)
	var downside stats.Float64Data
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity.InexactFloat64()
		if prev == 0 {
			continue
		}
		r := (equity[i].Equity.InexactFloat64() - prev) / prev
		returns = append(returns, r)
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(returns) == 0 {
		return
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return
	}
	m.AnnualizedReturn = mean * tradingDaysPerYear
	m.AnnualizedVolatility = sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear)

	excess := m.AnnualizedReturn - a.riskFreeRate
	m.SharpeRatio = excess / math.Max(m.AnnualizedVolatility, ratioEpsilon)

	downsideVol := sampleStdDev(downside) * math.Sqrt(tradingDaysPerYear)
	m.SortinoRatio = excess / math.Max(downsideVol, ratioEpsilon)
}

// sampleStdDev returns the sample standard deviation, or 0 when there are
// too few observations for it to be defined.
func sampleStdDev(data stats.Float64Data) float64 {
	if len(data) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}

// pctOf returns part/whole expressed as a percentage, or 0 for a zero whole.
func pctOf(part, whole decimal.Decimal) float64 {
	if whole.Sign() == 0 {
		return 0
	}
	return part.Div(whole).InexactFloat64() * 100
}
