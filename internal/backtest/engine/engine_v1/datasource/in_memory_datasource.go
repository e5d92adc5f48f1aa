package datasource

import (
	"context"
	"sort"
	"sync"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
)

// InMemoryDataSource serves price series held in memory.
// It is either filled directly with series or preloaded from an underlying DataSource.
type InMemoryDataSource struct {
	underlying DataSource

	// Full-resolution series by symbol
	data map[string]types.PriceSeries

	mu sync.RWMutex
}

// NewInMemoryDataSource creates an in-memory data source holding the given series.
func NewInMemoryDataSource(series ...types.PriceSeries) *InMemoryDataSource {
	ds := &InMemoryDataSource{
		underlying: nil,
		data:       make(map[string]types.PriceSeries, len(series)),
		mu:         sync.RWMutex{},
	}

	for _, s := range series {
		ds.data[s.Symbol] = s
	}

	return ds
}

// NewInMemoryDataSourceFrom creates an in-memory data source that preloads every
// symbol of underlying on Initialize.
func NewInMemoryDataSourceFrom(underlying DataSource) *InMemoryDataSource {
	ds := NewInMemoryDataSource()
	ds.underlying = underlying

	return ds
}

// Initialize implements DataSource.
// Without an underlying source there is nothing to load and path is ignored.
func (ds *InMemoryDataSource) Initialize(path string) error {
	if ds.underlying == nil {
		return nil
	}

	if err := ds.underlying.Initialize(path); err != nil {
		return err
	}

	return ds.Preload(context.Background())
}

// Preload copies every symbol of the underlying source into memory.
func (ds *InMemoryDataSource) Preload(ctx context.Context) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no underlying data source to preload from")
	}

	symbols, err := ds.underlying.Symbols()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
	}

	data := make(map[string]types.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		series, err := ds.underlying.FetchSeries(ctx, types.SeriesRequest{Symbol: symbol})
		if err != nil {
			return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to preload %s", symbol)
		}

		data[symbol] = series
	}

	ds.mu.Lock()
	ds.data = data
	ds.mu.Unlock()

	return nil
}

// FetchSeries implements engine.PriceSource.
func (ds *InMemoryDataSource) FetchSeries(ctx context.Context, req types.SeriesRequest) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, err
	}

	width, err := bucketWidth(req.Interval)
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid interval", err)
	}

	ds.mu.RLock()
	series, ok := ds.data[req.Symbol]
	ds.mu.RUnlock()

	if !ok {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeDataNotFound, "data not found for symbol: %s", req.Symbol)
	}

	return series.Window(req.Start, req.End).Resample(width), nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(symbol string) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.data[symbol].Len(), nil
}

// Symbols implements DataSource.
func (ds *InMemoryDataSource) Symbols() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0, len(ds.data))
	for symbol := range ds.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	if ds.underlying != nil {
		return ds.underlying.Close()
	}

	return nil
}
