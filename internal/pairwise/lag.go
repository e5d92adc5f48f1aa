package pairwise

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"gonum.org/v1/gonum/stat"
)

// minCorrelationSamples is the fewest overlapping pairs a correlation is computed from.
const minCorrelationSamples = 2

// ScanLags correlates the anchor returns shifted forward by each lag in 1..maxLag
// with the unshifted target returns. Both series must share the same index.
// Lags without enough overlap, or where either side has no variance, are recorded as None.
func ScanLags(anchor, target types.ReturnSeries, maxLag int) []types.LagCorrelation {
	n := min(anchor.Len(), target.Len())
	if maxLag <= 0 || n == 0 {
		return []types.LagCorrelation{}
	}

	anchorValues := anchor.Values()[:n]
	targetValues := target.Values()[:n]

	table := make([]types.LagCorrelation, 0, maxLag)

	for lag := 1; lag <= maxLag; lag++ {
		samples := max(n-lag, 0)
		entry := types.LagCorrelation{
			Lag:         lag,
			Correlation: optional.None[float64](),
			Samples:     samples,
		}

		if samples >= minCorrelationSamples {
			// anchor[t-lag] is paired with target[t] for t in lag..n-1
			corr := stat.Correlation(anchorValues[:n-lag], targetValues[lag:], nil)
			if !math.IsNaN(corr) && !math.IsInf(corr, 0) {
				entry.Correlation = optional.Some(corr)
			}
		}

		table = append(table, entry)
	}

	return table
}

// SelectLag picks the lag with the highest defined correlation when that
// correlation is strictly above threshold. Ties go to the smallest lag.
func SelectLag(table []types.LagCorrelation, threshold float64) optional.Option[int] {
	bestLag := 0
	best := math.Inf(-1)

	for _, entry := range table {
		if entry.Correlation.IsNone() {
			continue
		}

		if corr := entry.Correlation.Unwrap(); corr > best {
			best = corr
			bestLag = entry.Lag
		}
	}

	if bestLag == 0 || !(best > threshold) {
		return optional.None[int]()
	}

	return optional.Some(bestLag)
}

// FindBestLag runs ScanLags followed by SelectLag.
func FindBestLag(anchor, target types.ReturnSeries, params types.AnalysisParams) ([]types.LagCorrelation, optional.Option[int]) {
	table := ScanLags(anchor, target, params.MaxLag)

	return table, SelectLag(table, params.CorrThreshold)
}
