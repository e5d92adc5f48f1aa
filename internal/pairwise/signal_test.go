package pairwise

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
	anchor types.ReturnSeries
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) SetupTest() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.anchor = types.ReturnSeries{
		Symbol: "ETH-USD",
		Points: []types.ReturnPoint{
			{Time: start, Return: 0.02},
			{Time: start.Add(time.Hour), Return: -0.02},
			{Time: start.Add(2 * time.Hour), Return: 0.0},
		},
	}
}

func (suite *SignalTestSuite) signalTypes(signals []types.Signal) []types.SignalType {
	out := make([]types.SignalType, len(signals))
	for i, s := range signals {
		out[i] = s.Type
	}

	return out
}

func (suite *SignalTestSuite) TestLagOne() {
	signals := GenerateSignals(suite.anchor, optional.Some(1), 0.01)

	suite.Equal([]types.SignalType{types.SignalTypeHold, types.SignalTypeBuy, types.SignalTypeSell}, suite.signalTypes(signals))
	suite.Equal(suite.anchor.Points[1].Time, signals[1].Time)
	suite.InDelta(0.02, signals[1].AnchorReturn, 1e-12)
	suite.Equal("ETH-USD", signals[2].Symbol)
	suite.Contains(signals[1].Reason, "ETH-USD")
}

func (suite *SignalTestSuite) TestLagTwo() {
	signals := GenerateSignals(suite.anchor, optional.Some(2), 0.01)

	suite.Equal([]types.SignalType{types.SignalTypeHold, types.SignalTypeHold, types.SignalTypeBuy}, suite.signalTypes(signals))
}

func (suite *SignalTestSuite) TestNoLagIsAllHold() {
	signals := GenerateSignals(suite.anchor, optional.None[int](), 0.01)

	suite.Require().Len(signals, suite.anchor.Len())
	for _, s := range signals {
		suite.Equal(types.SignalTypeHold, s.Type)
	}
}

func (suite *SignalTestSuite) TestThresholdIsStrict() {
	signals := GenerateSignals(suite.anchor, optional.Some(1), 0.02)

	suite.Equal([]types.SignalType{types.SignalTypeHold, types.SignalTypeHold, types.SignalTypeHold}, suite.signalTypes(signals))
}

func (suite *SignalTestSuite) TestLagLongerThanSeries() {
	signals := GenerateSignals(suite.anchor, optional.Some(10), 0.001)

	for _, s := range signals {
		suite.Equal(types.SignalTypeHold, s.Type)
	}
}

func (suite *SignalTestSuite) TestEmptyAnchor() {
	signals := GenerateSignals(types.ReturnSeries{}, optional.Some(1), 0.01)

	suite.Empty(signals)
}
