package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"equisim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ SignalStore = (*SQLiteStore)(nil)
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements SignalStore and RunStore backed by a SQLite
// database. Money columns are stored as decimal strings to survive the
// round trip exactly.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy_id TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	date        TEXT NOT NULL,
	value       INTEGER NOT NULL,
	strength    REAL NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	UNIQUE(strategy_id, symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_signals_symbol_date ON signals(symbol, date);

CREATE TABLE IF NOT EXISTS backtest_runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol           TEXT NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	initial_capital  TEXT NOT NULL,
	final_equity     TEXT NOT NULL,
	net_profit       TEXT NOT NULL,
	total_trades     INTEGER NOT NULL,
	win_rate         REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	sharpe_ratio     REAL NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_symbol ON backtest_runs(symbol, created_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// SignalStore implementation
// ---------------------------------------------------------------------------

// SaveSignals upserts a batch of signals in a single transaction.
func (s *SQLiteStore) SaveSignals(ctx context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals (strategy_id, symbol, date, value, strength, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(strategy_id, symbol, date) DO UPDATE SET
			value = excluded.value,
			strength = excluded.strength,
			created_at = excluded.created_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sig := range signals {
		createdAt := sig.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			sig.StrategyID,
			sig.Symbol,
			sig.Date.UTC().Format("2006-01-02"),
			int(sig.Value),
			sig.Strength,
			createdAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting signal %s/%s: %w", sig.Symbol, sig.Date.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}

// GetSignalAt returns the signal recorded for (strategy, symbol, date), or
// nil if none exists. It never consults rows for later dates.
func (s *SQLiteStore) GetSignalAt(ctx context.Context, strategyID, symbol string, date time.Time) (*domain.Signal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, strategy_id, symbol, date, value, strength, created_at
		FROM signals
		WHERE strategy_id = ? AND symbol = ? AND date = ?`,
		strategyID, symbol, date.UTC().Format("2006-01-02"))

	sig, err := scanSignal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// ListSignals returns the most recent signals for a strategy/symbol pair,
// newest first.
func (s *SQLiteStore) ListSignals(ctx context.Context, strategyID, symbol string, limit int) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy_id, symbol, date, value, strength, created_at
		FROM signals
		WHERE strategy_id = ? AND symbol = ?
		ORDER BY date DESC
		LIMIT ?`,
		strategyID, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, *sig)
	}
	return signals, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(sc scanner) (*domain.Signal, error) {
	var (
		sig       domain.Signal
		value     int
		dateStr   string
		createdAt string
	)
	if err := sc.Scan(&sig.ID, &sig.StrategyID, &sig.Symbol, &dateStr, &value, &sig.Strength, &createdAt); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parsing signal date %q: %w", dateStr, err)
	}
	sig.Date = date
	sig.Value = domain.SignalValue(value)
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sig.CreatedAt = ts
	}
	return &sig, nil
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun inserts a backtest run summary and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunSummary) (int64, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs (
			symbol, start_date, end_date,
			initial_capital, final_equity, net_profit,
			total_trades, win_rate, max_drawdown_pct, sharpe_ratio,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol,
		run.Start.UTC().Format("2006-01-02"),
		run.End.UTC().Format("2006-01-02"),
		run.InitialCapital.String(),
		run.FinalEquity.String(),
		run.NetProfit.String(),
		run.TotalTrades,
		run.WinRate,
		run.MaxDrawdownPct,
		run.SharpeRatio,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run for %s: %w", run.Symbol, err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent run summaries, newest first. An empty
// symbol matches all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error) {
	query := `
		SELECT id, symbol, start_date, end_date,
		       initial_capital, final_equity, net_profit,
		       total_trades, win_rate, max_drawdown_pct, sharpe_ratio,
		       created_at
		FROM backtest_runs`
	args := []any{}
	if symbol != "" {
		query += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run                  RunSummary
			startStr, endStr     string
			capStr, eqStr, npStr string
			createdAt            string
		)
		err := rows.Scan(&run.ID, &run.Symbol, &startStr, &endStr,
			&capStr, &eqStr, &npStr,
			&run.TotalTrades, &run.WinRate, &run.MaxDrawdownPct, &run.SharpeRatio,
			&createdAt)
		if err != nil {
			return nil, err
		}

		run.Start, _ = time.ParseInLocation("2006-01-02", startStr, time.UTC)
		run.End, _ = time.ParseInLocation("2006-01-02", endStr, time.UTC)
		if run.InitialCapital, err = decimal.NewFromString(capStr); err != nil {
			return nil, fmt.Errorf("parsing initial capital %q: %w", capStr, err)
		}
		if run.FinalEquity, err = decimal.NewFromString(eqStr); err != nil {
			return nil, fmt.Errorf("parsing final equity %q: %w", eqStr, err)
		}
		if run.NetProfit, err = decimal.NewFromString(npStr); err != nil {
			return nil, fmt.Errorf("parsing net profit %q: %w", npStr, err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
