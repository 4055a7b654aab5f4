package backtest

import (
	"fmt"
	"time"
)

// ConfigError reports an invalid backtest configuration field. It is fatal
// and raised before any simulation state transitions.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports that the price series is too short to
// simulate. It is fatal and carries enough context to diagnose which
// symbol and range came up short.
type InsufficientDataError struct {
	Symbol  string
	Start   time.Time
	End     time.Time
	Bars    int
	MinBars int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s %s..%s: got %d bars, need %d",
		e.Symbol,
		e.Start.Format("2006-01-02"),
		e.End.Format("2006-01-02"),
		e.Bars,
		e.MinBars,
	)
}
