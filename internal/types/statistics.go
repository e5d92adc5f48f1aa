package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// AnalysisParams is the immutable parameter set handed to every pipeline stage.
type AnalysisParams struct {
	// MaxLag is the largest lag, in bars, scanned for correlation.
	MaxLag int `yaml:"max_lag" json:"max_lag"`
	// CorrThreshold is the minimum best-lag correlation accepted as a signal.
	CorrThreshold float64 `yaml:"corr_threshold" json:"corr_threshold"`
	// ReturnThreshold is the anchor return magnitude needed to emit BUY or SELL.
	ReturnThreshold float64 `yaml:"return_threshold" json:"return_threshold"`
	// StartingCapital is the initial cash of the simulated portfolio.
	StartingCapital float64 `yaml:"starting_capital" json:"starting_capital"`
}

type BacktestStats struct {
	// Cash the simulation started with.
	StartingCapital float64 `yaml:"starting_capital" json:"starting_capital"`
	// Portfolio value after the last simulated step.
	FinalValue float64 `yaml:"final_value" json:"final_value"`
	// (FinalValue - StartingCapital) / StartingCapital * 100.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// Return of holding the target over the simulated window, in percent.
	BuyAndHoldReturnPct float64 `yaml:"buy_and_hold_return_pct" json:"buy_and_hold_return_pct"`
	// Count of completed BUY then SELL round trips.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Largest peak-to-trough decline of the portfolio value, in percent.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
}

// AnalysisResult is everything one pipeline run hands to the presentation layer.
type AnalysisResult struct {
	// ID is the unique identifier for this run.
	ID string
	// Timestamp is when this run was executed.
	Timestamp time.Time
	// Anchor is the symbol whose lagged returns drive the signal.
	Anchor string
	// Target is the traded symbol.
	Target string
	// Interval is the bar interval of both series.
	Interval string
	// Params are the parameters the run used.
	Params AnalysisParams
	// AlignedPoints is the number of timestamps shared by both series.
	AlignedPoints int
	// LagTable holds one entry per scanned lag.
	LagTable []LagCorrelation
	// SelectedLag is None when no lag cleared the correlation threshold.
	SelectedLag optional.Option[int]
	// Signals is indexed like the anchor return series.
	Signals []Signal
	// Portfolio is the simulated portfolio value series.
	Portfolio []PortfolioValue
	// Stats summarizes the simulation.
	Stats BacktestStats
}

// BestCorrelation returns the correlation of the selected lag.
func (r AnalysisResult) BestCorrelation() optional.Option[float64] {
	if r.SelectedLag.IsNone() {
		return optional.None[float64]()
	}

	lag := r.SelectedLag.Unwrap()
	for _, entry := range r.LagTable {
		if entry.Lag == lag {
			return entry.Correlation
		}
	}

	return optional.None[float64]()
}
