package engine

import (
	"math"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"github.com/shopspring/decimal"
)

// reportPrecision is the number of decimal places percentages are rounded to.
const reportPrecision = 4

// NewPortfolioState returns the FLAT state holding capital in cash.
func NewPortfolioState(capital float64) types.PortfolioState {
	return types.PortfolioState{Cash: capital, Units: 0}
}

// Step applies one signal at price to the portfolio state.
// FLAT --BUY--> LONG and LONG --SELL--> FLAT; every other pair leaves the state unchanged.
func Step(state types.PortfolioState, signal types.SignalType, price float64) types.PortfolioState {
	switch {
	case signal == types.SignalTypeBuy && state.Units == 0 && price > 0:
		return types.PortfolioState{Cash: 0, Units: state.Cash / price}
	case signal == types.SignalTypeSell && state.Units > 0:
		return types.PortfolioState{Cash: state.Units * price, Units: 0}
	default:
		return state
	}
}

// Simulate folds Step over the signals starting at index 1. The price for signal i is
// target.Points[i]. The i = 0 signal is never traded.
// The result has len(signals)-1 values stamped with the trailing timestamps of target.
func Simulate(signals []types.Signal, target types.PriceSeries, capital float64) ([]types.PortfolioValue, error) {
	if len(signals) < 2 {
		return []types.PortfolioValue{}, nil
	}

	if target.Len() < len(signals) {
		return nil, errors.NewInsufficientDataErrorf(
			len(signals), target.Len(), target.Symbol,
			"target %s has %d prices for %d signals", target.Symbol, target.Len(), len(signals),
		)
	}

	steps := len(signals) - 1
	offset := target.Len() - steps
	values := make([]types.PortfolioValue, steps)
	state := NewPortfolioState(capital)

	for i := 1; i < len(signals); i++ {
		price := target.Points[i].Price
		state = Step(state, signals[i].Type, price)

		values[i-1] = types.PortfolioValue{
			Time:     target.Points[offset+i-1].Time,
			Value:    state.Value(price),
			Position: state.Position(),
		}
	}

	return values, nil
}

// Summarize reduces a portfolio value series to BacktestStats.
// An empty series leaves the final value at capital.
func Summarize(values []types.PortfolioValue, target types.PriceSeries, capital float64) types.BacktestStats {
	stats := types.BacktestStats{
		StartingCapital:     capital,
		FinalValue:          capital,
		TotalReturnPct:      0,
		BuyAndHoldReturnPct: 0,
		NumberOfTrades:      countRoundTrips(values),
		MaxDrawdownPct:      maxDrawdownPct(values, capital),
	}

	if len(values) > 0 {
		stats.FinalValue = values[len(values)-1].Value
	}

	stats.TotalReturnPct = percentChange(capital, stats.FinalValue)

	// Prices actually traded on are target[1] .. target[len(values)].
	if len(values) > 0 && target.Len() > len(values) {
		stats.BuyAndHoldReturnPct = percentChange(target.Points[1].Price, target.Points[len(values)].Price)
	}

	return stats
}

func percentChange(from, to float64) float64 {
	if from == 0 || !isFinite(from) || !isFinite(to) {
		return 0
	}

	start := decimal.NewFromFloat(from)
	pct, _ := decimal.NewFromFloat(to).Sub(start).Div(start).Mul(decimal.NewFromInt(100)).Round(reportPrecision).Float64()

	return pct
}

func countRoundTrips(values []types.PortfolioValue) int {
	trades := 0

	for i := 1; i < len(values); i++ {
		if values[i-1].Position == types.PositionLong && values[i].Position == types.PositionFlat {
			trades++
		}
	}

	return trades
}

// maxDrawdownPct returns 0 for a non-finite capital.
func maxDrawdownPct(values []types.PortfolioValue, capital float64) float64 {
	if !isFinite(capital) {
		return 0
	}

	peak := decimal.NewFromFloat(capital)
	worst := decimal.Zero

	for _, v := range values {
		if !isFinite(v.Value) {
			continue
		}

		value := decimal.NewFromFloat(v.Value)
		if value.GreaterThan(peak) {
			peak = value

			continue
		}

		if peak.IsPositive() {
			drawdown := peak.Sub(value).Div(peak).Mul(decimal.NewFromInt(100))
			if drawdown.GreaterThan(worst) {
				worst = drawdown
			}
		}
	}

	pct, _ := worst.Round(reportPrecision).Float64()

	return pct
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
