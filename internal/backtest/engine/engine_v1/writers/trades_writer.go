package writers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// TradesWriter collects closed trades in an in-memory DuckDB table and
// exports them to a parquet file.
type TradesWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewTradesWriter creates a new TradesWriter.
// outputPath is the full path to the parquet file.
func NewTradesWriter(outputPath string) *TradesWriter {
	return &TradesWriter{
		db:         nil,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize sets up the trades writer with DuckDB.
func (w *TradesWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			variant_group INTEGER,
			variant_key INTEGER,
			symbol TEXT,
			tag TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			hold_seconds BIGINT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			entry_notional DOUBLE,
			exit_notional DOUBLE,
			profit DOUBLE,
			profit_pct DOUBLE,
			exit_reason TEXT,
			entry_count INTEGER,
			still_held BOOLEAN,
			entry_change_rate DOUBLE,
			entry_trade_value DOUBLE,
			entry_tick_strength DOUBLE,
			entry_turnover DOUBLE,
			entry_high_low_spread DOUBLE,
			entry_depth_ratio DOUBLE,
			entry_spread_pct DOUBLE,
			exit_change_rate DOUBLE,
			exit_trade_value DOUBLE,
			exit_tick_strength DOUBLE,
			exit_turnover DOUBLE,
			exit_high_low_spread DOUBLE,
			exit_depth_ratio DOUBLE,
			exit_spread_pct DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// Write inserts trades in one transaction.
func (w *TradesWriter) Write(trades []types.ClosedTrade) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tradeColumns)), ", ")

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO trades (%s) VALUES (%s)`,
		strings.Join(tradeColumns, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, trade := range trades {
		if _, err := stmt.Exec(tradeRow(trade)...); err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trades: %w", err)
	}

	return nil
}

// Flush exports the stored trades to parquet.
func (w *TradesWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM trades ORDER BY variant_group, variant_key, exit_time, symbol)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return fmt.Errorf("failed to export to parquet: %w", err)
	}

	return nil
}

// GetOutputPath returns the parquet file path.
func (w *TradesWriter) GetOutputPath() string {
	return w.outputPath
}

// GetTradeCount returns the number of trades stored.
func (w *TradesWriter) GetTradeCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, fmt.Errorf("writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}

	return count, nil
}

// GetTotalProfit returns the sum of all trade profit.
func (w *TradesWriter) GetTotalProfit() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, fmt.Errorf("writer not initialized")
	}

	var total sql.NullFloat64
	if err := w.db.QueryRow("SELECT SUM(profit) FROM trades").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum profit: %w", err)
	}

	if !total.Valid {
		return 0, nil
	}

	return total.Float64, nil
}

// Close releases database resources.
func (w *TradesWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}

		w.db = nil
	}

	return nil
}
