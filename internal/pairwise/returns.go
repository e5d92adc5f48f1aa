package pairwise

import "github.com/rxtech-lab/pairwise-alpha/internal/types"

// Returns converts a price series into simple percentage returns.
// The return at index i is (p[i] - p[i-1]) / p[i-1] and is stamped with the time of p[i].
// A series shorter than two points yields an empty return series.
func Returns(prices types.PriceSeries) types.ReturnSeries {
	series := types.ReturnSeries{Symbol: prices.Symbol}
	if prices.Len() < 2 {
		series.Points = []types.ReturnPoint{}

		return series
	}

	series.Points = make([]types.ReturnPoint, prices.Len()-1)

	for i := 1; i < prices.Len(); i++ {
		prev := prices.Points[i-1].Price
		curr := prices.Points[i]
		series.Points[i-1] = types.ReturnPoint{
			Time:   curr.Time,
			Return: (curr.Price - prev) / prev,
		}
	}

	return series
}
