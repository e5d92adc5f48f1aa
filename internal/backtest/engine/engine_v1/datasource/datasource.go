package datasource

import (
	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// DataSource serves closing-price series from locally stored market data.
type DataSource interface {
	engine.PriceSource
	// Initialize initializes the data source with the given data path in parquet format.
	// Glob patterns load several files at once (e.g. "data/*.parquet").
	Initialize(path string) error
	// Count returns the number of rows stored for symbol
	Count(symbol string) (int, error)
	// Symbols returns the distinct symbols available, sorted
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}
