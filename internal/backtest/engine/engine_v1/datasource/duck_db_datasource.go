package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"go.uber.org/zap"
)

const viewName = "market_data"

// tickColumns are the parquet columns read into a Tick, in scan order.
// Depth columns follow as ask_price_N, ask_qty_N, bid_price_N, bid_qty_N.
var tickColumns = []string{
	"price", "open", "high", "low",
	"change_rate", "trade_value", "tick_strength", "turnover",
	"prev_day_ratio", "same_time_ratio", "volume", "attention_rank",
	"total_ask_qty", "total_bid_qty",
}

func depthColumns() []string {
	columns := make([]string, 0, types.DepthLevels*4)
	for i := 1; i <= types.DepthLevels; i++ {
		columns = append(columns,
			fmt.Sprintf("ask_price_%d", i),
			fmt.Sprintf("ask_qty_%d", i),
			fmt.Sprintf("bid_price_%d", i),
			fmt.Sprintf("bid_qty_%d", i),
		)
	}

	return columns
}

// DuckDBDataSource reads ticks from parquet files through a DuckDB view.
// Numeric columns missing from the files read as 0.
type DuckDBDataSource struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	present map[string]bool
}

// NewDataSource opens a DuckDB database at path (":memory:" for none).
// Call Initialize to attach the parquet files.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:      db,
		logger:  logger,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		present: map[string]bool{},
	}, nil
}

// Initialize creates the market data view over the parquet files matched by path.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS ` + viewName); err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// CREATE VIEW is not expressible with squirrel
	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s')`,
		viewName, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create market data view", err)
	}

	present, err := d.describe()
	if err != nil {
		return err
	}

	for _, required := range []string{"time", "symbol", "price"} {
		if !present[required] {
			return errors.Newf(errors.ErrCodeDataSourceUnavailable, "market data is missing column %s", required)
		}
	}

	d.present = present

	return nil
}

func (d *DuckDBDataSource) describe() (map[string]bool, error) {
	rows, err := d.db.Query(`SELECT column_name FROM (DESCRIBE ` + viewName + `)`)
	if err != nil {
		return nil, fmt.Errorf("failed to describe market data: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}

		present[strings.ToLower(name)] = true
	}

	return present, rows.Err()
}

func (d *DuckDBDataSource) column(name string) string {
	if d.present[name] {
		return fmt.Sprintf("COALESCE(CAST(%s AS DOUBLE), 0) AS %s", name, name)
	}

	return "CAST(0 AS DOUBLE) AS " + name
}

func (d *DuckDBDataSource) filter(query squirrel.SelectBuilder, symbol string, r Range) squirrel.SelectBuilder {
	query = query.Where(squirrel.Eq{"symbol": symbol})

	if r.Start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": r.Start.Unwrap()})
	}

	if r.End.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": r.End.Unwrap()})
	}

	if r.Day != 0 {
		query = query.Where("CAST(strftime(time, '%Y%m%d') AS INTEGER) = ?", r.Day)
	}

	if r.hasSession() {
		query = query.Where("CAST(strftime(time, '%H%M%S') AS INTEGER) BETWEEN ? AND ?", r.SessionStart, r.SessionEnd)
	}

	return query
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols(ctx context.Context) ([]string, error) {
	query, args, err := d.sq.Select("DISTINCT symbol").From(viewName).OrderBy("symbol").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build symbols query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(ctx context.Context, symbol string, r Range) (int, error) {
	query, args, err := d.filter(d.sq.Select("COUNT(*)").From(viewName), symbol, r).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Days implements DataSource.
func (d *DuckDBDataSource) Days(ctx context.Context, symbol string, r Range) ([]DayCount, error) {
	dayExpr := "CAST(strftime(time, '%Y%m%d') AS INTEGER)"

	query, args, err := d.filter(d.sq.Select(dayExpr+" AS day", "COUNT(*)").From(viewName), symbol, r).
		GroupBy("day").
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build days query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query days", err)
	}
	defer rows.Close()

	var days []DayCount

	for rows.Next() {
		var day DayCount
		if err := rows.Scan(&day.Day, &day.Ticks); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}

		days = append(days, day)
	}

	return days, rows.Err()
}

// Load implements DataSource.
func (d *DuckDBDataSource) Load(ctx context.Context, symbol string, r Range) ([]types.Tick, error) {
	columns := []string{"time", "symbol"}
	for _, name := range tickColumns {
		columns = append(columns, d.column(name))
	}

	for _, name := range depthColumns() {
		columns = append(columns, d.column(name))
	}

	query, args, err := d.filter(d.sq.Select(columns...).From(viewName), symbol, r).OrderBy("time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build load query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	result := make([]types.Tick, 0, 1024)

	for rows.Next() {
		tick, err := scanTick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		result = append(result, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	d.logger.Debug("Loaded market data",
		zap.String("symbol", symbol),
		zap.Int("records", len(result)),
	)

	return result, nil
}

func scanTick(rows *sql.Rows) (types.Tick, error) {
	var (
		tick      types.Tick
		timestamp time.Time
		rank      float64
	)

	targets := []any{
		&timestamp, &tick.Symbol,
		&tick.Price, &tick.Open, &tick.High, &tick.Low,
		&tick.ChangeRate, &tick.TradeValue, &tick.TickStrength, &tick.Turnover,
		&tick.PrevDayRatio, &tick.SameTimeRatio, &tick.Volume, &rank,
		&tick.TotalAskQty, &tick.TotalBidQty,
	}

	for i := range types.DepthLevels {
		targets = append(targets,
			&tick.Asks[i].Price, &tick.Asks[i].Quantity,
			&tick.Bids[i].Price, &tick.Bids[i].Quantity,
		)
	}

	if err := rows.Scan(targets...); err != nil {
		return types.Tick{}, err
	}

	tick.Time = timestamp.UTC()
	tick.AttentionRank = int(rank)

	return tick, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
