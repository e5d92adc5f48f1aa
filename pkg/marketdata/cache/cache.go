package cache

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// Cache memoizes fetched price series.
type Cache interface {
	// Get returns the cached series for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (series types.PriceSeries, ok bool, err error)
	// Set stores series under key.
	Set(ctx context.Context, key string, series types.PriceSeries) error
}

// Key builds the cache key of a series request.
// Requests with the same provider, symbol, window and interval share a key.
func Key(provider string, req types.SeriesRequest) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s",
		provider,
		req.Symbol,
		req.Start.UTC().Unix(),
		req.End.UTC().Unix(),
		req.Interval,
	)
}

// clone copies the points so callers never share a backing array with the cache.
func clone(series types.PriceSeries) types.PriceSeries {
	points := make([]types.PricePoint, len(series.Points))
	copy(points, series.Points)

	return types.PriceSeries{Symbol: series.Symbol, Points: points}
}
