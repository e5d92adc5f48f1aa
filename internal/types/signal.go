package types

import "time"

type SignalType string

const (
	// SignalTypeBuy tells the simulator to move all cash into the target
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell tells the simulator to move the whole position back to cash
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold tells the simulator to keep the current position
	SignalTypeHold SignalType = "HOLD"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time `json:"time" yaml:"time"`
	// Type is the type of the signal
	Type SignalType `json:"type" yaml:"type"`
	// Symbol is the anchor symbol whose return produced the signal
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	// AnchorReturn is the lagged anchor return that produced the signal
	AnchorReturn float64 `json:"anchor_return" yaml:"anchor_return"`
	// Reason is the reason for the signal
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
