package report

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// NoLagMessage is shown when no lag clears the correlation threshold.
const NoLagMessage = "No significant lag correlation found above threshold."

// LagEntry is one lag correlation row. Correlation is nil when undefined.
type LagEntry struct {
	Lag         int      `json:"lag" yaml:"lag"`
	Correlation *float64 `json:"correlation" yaml:"correlation"`
	Samples     int      `json:"samples" yaml:"samples"`
}

// Report is the serializable form of an analysis result.
type Report struct {
	ID              string                 `json:"id" yaml:"id"`
	Timestamp       time.Time              `json:"timestamp" yaml:"timestamp"`
	Anchor          string                 `json:"anchor" yaml:"anchor"`
	Target          string                 `json:"target" yaml:"target"`
	Interval        string                 `json:"interval" yaml:"interval"`
	Params          types.AnalysisParams   `json:"params" yaml:"params"`
	AlignedPoints   int                    `json:"aligned_points" yaml:"aligned_points"`
	LagTable        []LagEntry             `json:"lag_table" yaml:"lag_table"`
	SelectedLag     *int                   `json:"selected_lag" yaml:"selected_lag"`
	BestCorrelation *float64               `json:"best_correlation" yaml:"best_correlation"`
	Message         string                 `json:"message" yaml:"message"`
	SignalCounts    map[string]int         `json:"signal_counts" yaml:"signal_counts"`
	Stats           types.BacktestStats    `json:"stats" yaml:"stats"`
	Portfolio       []types.PortfolioValue `json:"portfolio" yaml:"portfolio"`
}

// LagMessage describes the lag selection outcome.
func LagMessage(result types.AnalysisResult) string {
	if result.SelectedLag.IsNone() {
		return NoLagMessage
	}

	return fmt.Sprintf("Best Lag = %d bars (Interval = %s)", result.SelectedLag.Unwrap(), result.Interval)
}

// FinalCapitalMessage formats the final portfolio value.
func FinalCapitalMessage(stats types.BacktestStats) string {
	return fmt.Sprintf("Final Capital $%.2f", stats.FinalValue)
}

// TotalReturnMessage formats the total return.
func TotalReturnMessage(stats types.BacktestStats) string {
	return fmt.Sprintf("Total Return %.2f%%", stats.TotalReturnPct)
}

// ToReport converts a result into its serializable form.
func ToReport(result types.AnalysisResult) Report {
	report := Report{
		ID:            result.ID,
		Timestamp:     result.Timestamp,
		Anchor:        result.Anchor,
		Target:        result.Target,
		Interval:      result.Interval,
		Params:        result.Params,
		AlignedPoints: result.AlignedPoints,
		LagTable:      make([]LagEntry, 0, len(result.LagTable)),
		Message:       LagMessage(result),
		SignalCounts: map[string]int{
			string(types.SignalTypeBuy):  0,
			string(types.SignalTypeSell): 0,
			string(types.SignalTypeHold): 0,
		},
		Stats:     result.Stats,
		Portfolio: result.Portfolio,
	}

	for _, entry := range result.LagTable {
		row := LagEntry{Lag: entry.Lag, Samples: entry.Samples}
		if entry.Correlation.IsSome() {
			corr := entry.Correlation.Unwrap()
			row.Correlation = &corr
		}

		report.LagTable = append(report.LagTable, row)
	}

	if result.SelectedLag.IsSome() {
		lag := result.SelectedLag.Unwrap()
		report.SelectedLag = &lag
	}

	if best := result.BestCorrelation(); best.IsSome() {
		corr := best.Unwrap()
		report.BestCorrelation = &corr
	}

	for _, signal := range result.Signals {
		report.SignalCounts[string(signal.Type)]++
	}

	if report.Portfolio == nil {
		report.Portfolio = []types.PortfolioValue{}
	}

	return report
}
