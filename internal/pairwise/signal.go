package pairwise

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// GenerateSignals maps every anchor return index to BUY, SELL or HOLD.
// The signal at i reads anchor[i-lag]; the first lag entries are HOLD.
// Without a lag every entry is HOLD.
func GenerateSignals(anchor types.ReturnSeries, lag optional.Option[int], returnThreshold float64) []types.Signal {
	signals := make([]types.Signal, anchor.Len())

	for i, point := range anchor.Points {
		signals[i] = signalAt(anchor, i, lag, returnThreshold)
		signals[i].Time = point.Time
		signals[i].Symbol = anchor.Symbol
	}

	return signals
}

func signalAt(anchor types.ReturnSeries, i int, lag optional.Option[int], threshold float64) types.Signal {
	if lag.IsNone() {
		return types.Signal{Type: types.SignalTypeHold, Reason: "no significant lag"}
	}

	l := lag.Unwrap()
	if l < 1 || i < l {
		return types.Signal{Type: types.SignalTypeHold, Reason: "insufficient history"}
	}

	r := anchor.Points[i-l].Return

	switch {
	case r > threshold:
		return types.Signal{
			Type:         types.SignalTypeBuy,
			AnchorReturn: r,
			Reason:       fmt.Sprintf("%s return %.4f above %.4f, %d bars ago", anchor.Symbol, r, threshold, l),
		}
	case r < -threshold:
		return types.Signal{
			Type:         types.SignalTypeSell,
			AnchorReturn: r,
			Reason:       fmt.Sprintf("%s return %.4f below %.4f, %d bars ago", anchor.Symbol, r, -threshold, l),
		}
	default:
		return types.Signal{Type: types.SignalTypeHold, AnchorReturn: r}
	}
}
