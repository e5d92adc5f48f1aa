package types

import "github.com/moznion/go-optional"

// LagCorrelation is one row of the lag correlation table.
type LagCorrelation struct {
	// Lag is the number of bars the anchor returns are shifted forward.
	Lag int
	// Correlation is the Pearson coefficient, None when it is undefined for this lag.
	Correlation optional.Option[float64]
	// Samples is the number of overlapping return pairs used for the coefficient.
	Samples int
}
