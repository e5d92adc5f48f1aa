// Package pairwise holds the analytical pipeline that relates an anchor asset's
// lagged returns to a target asset's returns.
package pairwise

import (
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
)

// MinAlignedPoints is the smallest number of shared timestamps that yields at least one return.
const MinAlignedPoints = 2

// Align inner-joins anchor and target on timestamp.
// Both outputs share the same index. Fewer than MinAlignedPoints shared timestamps
// is reported as an InsufficientDataError.
func Align(anchor, target types.PriceSeries) (types.PriceSeries, types.PriceSeries, error) {
	targetByTime := make(map[int64]float64, target.Len())
	for _, p := range target.Points {
		targetByTime[p.Time.UnixNano()] = p.Price
	}

	alignedAnchor := types.PriceSeries{Symbol: anchor.Symbol, Points: make([]types.PricePoint, 0, anchor.Len())}
	alignedTarget := types.PriceSeries{Symbol: target.Symbol, Points: make([]types.PricePoint, 0, anchor.Len())}

	for _, p := range anchor.Points {
		price, ok := targetByTime[p.Time.UnixNano()]
		if !ok {
			continue
		}

		alignedAnchor.Points = append(alignedAnchor.Points, p)
		alignedTarget.Points = append(alignedTarget.Points, types.PricePoint{Time: p.Time, Price: price})
	}

	if n := alignedAnchor.Len(); n < MinAlignedPoints {
		return types.PriceSeries{}, types.PriceSeries{}, errors.NewInsufficientDataErrorf(
			MinAlignedPoints, n, target.Symbol,
			"insufficient aligned prices for %s and %s: required %d, got %d",
			anchor.Symbol, target.Symbol, MinAlignedPoints, n,
		)
	}

	return alignedAnchor, alignedTarget, nil
}
