package writers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// Copier is the subset of a pgx pool the Postgres writer needs.
type Copier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// PostgresWriter bulk-loads closed trades into the backtest_trades table,
// tagged with the run id.
type PostgresWriter struct {
	db    Copier
	runID string
	table string
}

// NewPostgresWriter creates a writer for one run.
func NewPostgresWriter(db Copier, runID string) *PostgresWriter {
	return &PostgresWriter{
		db:    db,
		runID: runID,
		table: "backtest_trades",
	}
}

// EnsureSchema creates the trades table when it does not exist.
func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			variant_group INTEGER NOT NULL,
			variant_key INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			tag TEXT,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ NOT NULL,
			hold_seconds BIGINT,
			entry_price DOUBLE PRECISION,
			exit_price DOUBLE PRECISION,
			entry_notional DOUBLE PRECISION,
			exit_notional DOUBLE PRECISION,
			profit DOUBLE PRECISION,
			profit_pct DOUBLE PRECISION,
			exit_reason TEXT,
			entry_count INTEGER,
			still_held BOOLEAN,
			entry_change_rate DOUBLE PRECISION,
			entry_trade_value DOUBLE PRECISION,
			entry_tick_strength DOUBLE PRECISION,
			entry_turnover DOUBLE PRECISION,
			entry_high_low_spread DOUBLE PRECISION,
			entry_depth_ratio DOUBLE PRECISION,
			entry_spread_pct DOUBLE PRECISION,
			exit_change_rate DOUBLE PRECISION,
			exit_trade_value DOUBLE PRECISION,
			exit_tick_strength DOUBLE PRECISION,
			exit_turnover DOUBLE PRECISION,
			exit_high_low_spread DOUBLE PRECISION,
			exit_depth_ratio DOUBLE PRECISION,
			exit_spread_pct DOUBLE PRECISION,
			first_entry_time TIMESTAMPTZ
		)
	`, pgx.Identifier{w.table}.Sanitize())

	if _, err := w.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create trades table: %w", err)
	}

	return nil
}

// Columns returns the column names written by Write, in order.
func (w *PostgresWriter) Columns() []string {
	columns := append([]string{"run_id"}, tradeColumns...)

	return append(columns, "first_entry_time")
}

// Write copies trades into Postgres and returns the number of rows written.
func (w *PostgresWriter) Write(ctx context.Context, trades []types.ClosedTrade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(trades))
	for _, trade := range trades {
		row := append([]any{w.runID}, tradeRow(trade)...)
		row = append(row, firstEntry(trade).UTC())
		rows = append(rows, row)
	}

	n, err := w.db.CopyFrom(ctx, pgx.Identifier{w.table}, w.Columns(), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy trades: %w", err)
	}

	return n, nil
}
