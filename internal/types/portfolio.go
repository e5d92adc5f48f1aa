package types

import "time"

type PositionState string

const (
	// PositionFlat means the portfolio is fully in cash
	PositionFlat PositionState = "FLAT"
	// PositionLong means the portfolio is fully invested in the target
	PositionLong PositionState = "LONG"
)

// PortfolioState is the all-in/all-out portfolio carried through the simulation.
// Cash and Units are never both positive.
type PortfolioState struct {
	Cash  float64
	Units float64
}

// Position reports whether the portfolio is flat or long.
func (s PortfolioState) Position() PositionState {
	if s.Units > 0 {
		return PositionLong
	}

	return PositionFlat
}

// Value returns the mark-to-market value at the given price.
func (s PortfolioState) Value(price float64) float64 {
	return s.Cash + s.Units*price
}

// PortfolioValue is the portfolio value recorded after one simulated step.
type PortfolioValue struct {
	Time     time.Time     `json:"time" yaml:"time"`
	Value    float64       `json:"value" yaml:"value"`
	Position PositionState `json:"position" yaml:"position"`
}
