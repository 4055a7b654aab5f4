package backtest

import (
	"github.com/shopspring/decimal"

	"equisim/internal/domain"
	"equisim/internal/util"
)

var one = decimal.NewFromInt(1)

// Simulator replays a daily bar series through the two-state position
// machine. A Simulator is created per run and holds no state across runs;
// all running state lives in the fold over the bars.
type Simulator struct {
	cfg Config
}

// NewSimulator creates a Simulator for the given (already validated) config.
func NewSimulator(cfg Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// runState is the simulator's position between bars: cash on hand plus the
// open position, if any. A nil position means the machine is flat.
type runState struct {
	cash decimal.Decimal
	pos  *domain.Position
}

// Run folds the per-bar transition over the series. Bars must be in
// ascending date order. signals maps bar dates (UTC, "2006-01-02") to
// signal values; absent dates read as hold.
//
// It returns the emitted trades and one equity point per bar, or an
// InsufficientDataError before any transition if the series is too short.
func (s *Simulator) Run(bars []domain.Bar, signals map[string]domain.SignalValue) ([]domain.Trade, []domain.EquityPoint, error) {
	if len(bars) < s.cfg.minBars() {
		return nil, nil, &InsufficientDataError{
			Symbol:  s.cfg.Symbol,
			Start:   s.cfg.Start,
			End:     s.cfg.End,
			Bars:    len(bars),
			MinBars: s.cfg.minBars(),
		}
	}

	st := runState{cash: s.cfg.InitialCapital}
	var trades []domain.Trade
	equity := make([]domain.EquityPoint, 0, len(bars))

	for i := range bars {
		bar := bars[i]
		sig := signals[util.DateKey(bar.Timestamp)]
		last := i == len(bars)-1

		next, trade, point := s.step(st, bar, sig, last)
		st = next
		if trade != nil {
			trades = append(trades, *trade)
		}
		equity = append(equity, point)
	}

	return trades, equity, nil
}

// step applies one bar to the state machine and returns the new state, the
// trade emitted by a position close (nil otherwise), and the bar's equity
// point. It is a pure function of its inputs.
func (s *Simulator) step(st runState, bar domain.Bar, sig domain.SignalValue, last bool) (runState, *domain.Trade, domain.EquityPoint) {
	var trade *domain.Trade

	switch {
	case st.pos == nil && sig == domain.SignalBuy:
		st = s.tryEnter(st, bar)
	case st.pos != nil:
		if reason, exitPrice, ok := s.exitCheck(st.pos, bar, sig, last); ok {
			st, trade = s.closePosition(st, bar, reason, exitPrice)
		}
	}

	return st, trade, domain.EquityPoint{
		Date:   bar.Timestamp,
		Equity: s.equity(st, bar),
	}
}

// tryEnter attempts to open a long position at the bar's close. An entry
// that would size to zero shares, or cost more than the available cash,
// leaves the state flat without error.
func (s *Simulator) tryEnter(st runState, bar domain.Bar) runState {
	closePrice := decimal.NewFromFloat(bar.Close)
	capital := st.cash.Mul(s.cfg.PositionSize)

	// Round-trip friction estimate for the entry leg.
	friction := s.cfg.Commission.Add(closePrice.Mul(s.cfg.Slippage))

	shares := capital.Sub(friction).Div(closePrice).Floor()
	if shares.Sign() <= 0 {
		return st
	}

	principal := closePrice.Mul(shares)
	if principal.Add(friction).GreaterThan(st.cash) {
		return st
	}

	st.cash = st.cash.Sub(principal)
	st.pos = &domain.Position{
		Symbol:     bar.Symbol,
		EntryDate:  bar.Timestamp,
		EntryPrice: closePrice,
		Shares:     shares.IntPart(),
	}
	return st
}

// exitCheck evaluates the exit conditions for an open position against one
// bar, in fixed priority order: signal change, stop loss, take profit, end
// of period. The first matching condition wins. Stop and target fills use
// the exact threshold price; the others fill at the bar's close.
func (s *Simulator) exitCheck(pos *domain.Position, bar domain.Bar, sig domain.SignalValue, last bool) (domain.ExitReason, decimal.Decimal, bool) {
	if sig == domain.SignalSell {
		return domain.ExitSignalChange, decimal.NewFromFloat(bar.Close), true
	}
	if s.cfg.StopLoss.Sign() > 0 {
		stopPrice := pos.EntryPrice.Mul(one.Sub(s.cfg.StopLoss))
		if decimal.NewFromFloat(bar.Low).LessThanOrEqual(stopPrice) {
			return domain.ExitStopLoss, stopPrice, true
		}
	}
	if s.cfg.TakeProfit.Sign() > 0 {
		targetPrice := pos.EntryPrice.Mul(one.Add(s.cfg.TakeProfit))
		if decimal.NewFromFloat(bar.High).GreaterThanOrEqual(targetPrice) {
			return domain.ExitTakeProfit, targetPrice, true
		}
	}
	if last {
		return domain.ExitEndOfPeriod, decimal.NewFromFloat(bar.Close), true
	}
	return "", decimal.Decimal{}, false
}

// closePosition emits the immutable trade record for the open position and
// returns the flat state with the principal and net profit credited back.
func (s *Simulator) closePosition(st runState, bar domain.Bar, reason domain.ExitReason, exitPrice decimal.Decimal) (runState, *domain.Trade) {
	pos := st.pos
	shares := decimal.NewFromInt(pos.Shares)

	gross := exitPrice.Sub(pos.EntryPrice).Mul(shares)
	commission := s.cfg.Commission.Mul(decimal.NewFromInt(2))
	slippage := pos.EntryPrice.Mul(s.cfg.Slippage).Add(exitPrice.Mul(s.cfg.Slippage))
	net := gross.Sub(commission).Sub(slippage)

	trade := &domain.Trade{
		Symbol:      pos.Symbol,
		EntryDate:   pos.EntryDate,
		EntryPrice:  pos.EntryPrice,
		ExitDate:    bar.Timestamp,
		ExitPrice:   exitPrice,
		Shares:      pos.Shares,
		ExitReason:  reason,
		GrossProfit: gross,
		Commission:  commission,
		Slippage:    slippage,
		NetProfit:   net,
		ReturnPct:   exitPrice.Sub(pos.EntryPrice).Div(pos.EntryPrice).InexactFloat64() * 100,
		HoldingDays: util.CalendarDays(pos.EntryDate, bar.Timestamp),
	}

	principal := pos.EntryPrice.Mul(shares)
	st.cash = st.cash.Add(principal).Add(net)
	st.pos = nil
	return st, trade
}

// equity marks the state to market at the bar's close: cash when flat, cash
// plus position market value when long. While long this equals the
// pre-entry cash plus unrealized P&L, so the curve is continuous across
// entries and only drops by friction on exits.
func (s *Simulator) equity(st runState, bar domain.Bar) decimal.Decimal {
	if st.pos == nil {
		return st.cash
	}
	marketValue := decimal.NewFromFloat(bar.Close).Mul(decimal.NewFromInt(st.pos.Shares))
	return st.cash.Add(marketValue)
}
