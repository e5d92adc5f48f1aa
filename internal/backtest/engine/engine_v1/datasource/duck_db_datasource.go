package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path parameter specifies the DuckDB database file location.
// This is distinct from Initialize() which loads market data into the database.
// Returns a DataSource interface and any error encountered during creation.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	// Set DuckDB-specific optimizations
	_, err = db.Exec(`SET threads=4;`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to set DuckDB optimizations: %w", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	// First drop the view if it exists
	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// Create a view from the parquet files - using raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, strings.ReplaceAll(path, "'", "''"))

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load parquet data from %s", path)
	}

	return nil
}

// FetchSeries implements engine.PriceSource.
// A non-empty req.Interval resamples the stored bars, keeping the last close per bucket.
func (d *DuckDBDataSource) FetchSeries(ctx context.Context, req types.SeriesRequest) (types.PriceSeries, error) {
	if req.Symbol == "" {
		return types.PriceSeries{}, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	width, err := bucketWidth(req.Interval)
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid interval", err)
	}

	query, args, err := d.buildFetchSeriesQuery(req, width)
	if err != nil {
		return types.PriceSeries{}, err
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query prices for %s", req.Symbol)
	}
	defer rows.Close()

	var data []types.MarketData

	for rows.Next() {
		var (
			timestamp time.Time
			close     float64
		)

		if err := rows.Scan(&timestamp, &close); err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		data = append(data, types.MarketData{Symbol: req.Symbol, Time: timestamp.UTC(), Close: close})
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	d.logger.Debug("Fetched prices from DuckDB",
		zap.String("symbol", req.Symbol),
		zap.String("interval", req.Interval),
		zap.Int("rows", len(data)),
	)

	return types.NewPriceSeries(req.Symbol, data), nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(symbol string) (int, error) {
	query, args, err := d.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count rows", err)
	}

	return count, nil
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.db.Query(query, args...)
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

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

// buildFetchSeriesQuery constructs the SQL query for FetchSeries.
func (d *DuckDBDataSource) buildFetchSeriesQuery(req types.SeriesRequest, width time.Duration) (string, []interface{}, error) {
	conditions := squirrel.And{squirrel.Eq{"symbol": req.Symbol}}

	if !req.Start.IsZero() {
		conditions = append(conditions, squirrel.GtOrEq{"time": req.Start})
	}

	if !req.End.IsZero() {
		conditions = append(conditions, squirrel.LtOrEq{"time": req.End})
	}

	builder := d.sq.Select("time", "close").
		From("market_data").
		Where(conditions).
		OrderBy("time ASC")

	if width > 0 {
		minutes := int(width / time.Minute)
		builder = d.sq.
			Select(
				fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time) AS bucket_time", minutes),
				"arg_max(close, time) AS close",
			).
			From("market_data").
			Where(conditions).
			GroupBy("bucket_time").
			OrderBy("bucket_time ASC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build query: %w", err)
	}

	return query, args, nil
}
