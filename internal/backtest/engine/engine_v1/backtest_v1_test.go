package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/mocks"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BacktestEngineV1TestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	source *mocks.MockPriceSource
	engine *BacktestEngineV1
	start  time.Time
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockPriceSource(suite.ctrl)
	suite.engine = NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	config := TestConfig("ETH-USD", "AVAX-USD", suite.start, suite.start.AddDate(0, 3, 0))
	suite.Require().NoError(suite.engine.InitializeWithConfig(config))
	suite.Require().NoError(suite.engine.SetPriceSource(suite.source))
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

// serve makes the mock price source answer with the given series by symbol.
func (suite *BacktestEngineV1TestSuite) serve(series ...types.PriceSeries) {
	bySymbol := make(map[string]types.PriceSeries, len(series))
	for _, s := range series {
		bySymbol[s.Symbol] = s
	}

	suite.source.EXPECT().FetchSeries(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.SeriesRequest) (types.PriceSeries, error) {
			s, ok := bySymbol[req.Symbol]
			if !ok {
				return types.PriceSeries{}, fmt.Errorf("unknown symbol %s", req.Symbol)
			}

			return s, nil
		},
	).AnyTimes()
}

func (suite *BacktestEngineV1TestSuite) laggedPair(lag int) (types.PriceSeries, types.PriceSeries) {
	gen := mocks.NewDataGenerator(21)

	anchorConfig := mocks.DefaultConfig()
	anchorConfig.Symbol = "ETH-USD"
	anchorConfig.StartTime = suite.start
	anchorConfig.Count = 400

	targetConfig := mocks.DefaultConfig()
	targetConfig.Symbol = "AVAX-USD"
	targetConfig.InitialPrice = 20

	anchor, target := gen.GenerateLaggedPair(anchorConfig, targetConfig, lag)

	return types.NewPriceSeries("ETH-USD", anchor), types.NewPriceSeries("AVAX-USD", target)
}

func (suite *BacktestEngineV1TestSuite) TestRunFindsLag() {
	anchor, target := suite.laggedPair(3)
	suite.serve(anchor, target)

	var events []string

	onStart := engine_types.OnRunStartCallback(func(runID, anchor, target string) error {
		events = append(events, "start:"+anchor+"->"+target)

		return nil
	})
	onLag := engine_types.OnLagSelectedCallback(func(runID string, lag optional.Option[int]) error {
		events = append(events, fmt.Sprintf("lag:%d", lag.Unwrap()))

		return nil
	})
	onEnd := engine_types.OnRunEndCallback(func(runID string, err error) {
		events = append(events, fmt.Sprintf("end:%v", err))
	})

	result, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnLagSelected: &onLag,
		OnRunEnd:      &onEnd,
	})
	suite.Require().NoError(err)

	suite.Equal([]string{"start:ETH-USD->AVAX-USD", "lag:3", "end:<nil>"}, events)
	suite.NotEmpty(result.ID)
	suite.Equal("ETH-USD", result.Anchor)
	suite.Equal("AVAX-USD", result.Target)
	suite.Equal("4h", result.Interval)
	suite.Equal(400, result.AlignedPoints)
	suite.Len(result.LagTable, 24)
	suite.Equal(optional.Some(3), result.SelectedLag)
	suite.InDelta(1.0, result.BestCorrelation().Unwrap(), 1e-9)
	suite.Len(result.Signals, 399)
	suite.Len(result.Portfolio, 398)
	suite.Equal(result.Portfolio[len(result.Portfolio)-1].Value, result.Stats.FinalValue)
	suite.Equal(1000.0, result.Stats.StartingCapital)

	traded := false
	for _, s := range result.Signals {
		if s.Type != types.SignalTypeHold {
			traded = true
		}
	}

	suite.True(traded)
}

func (suite *BacktestEngineV1TestSuite) TestRunWithoutSignificantLag() {
	gen := mocks.NewDataGenerator(77)
	config := mocks.DefaultConfig()
	config.StartTime = suite.start
	config.Count = 500

	config.Symbol = "ETH-USD"
	anchor := types.NewPriceSeries("ETH-USD", gen.Generate(config))
	config.Symbol = "AVAX-USD"
	target := types.NewPriceSeries("AVAX-USD", gen.Generate(config))

	suite.serve(anchor, target)

	result, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.True(result.SelectedLag.IsNone())
	suite.True(result.BestCorrelation().IsNone())
	for _, s := range result.Signals {
		suite.Equal(types.SignalTypeHold, s.Type)
	}

	suite.Equal(1000.0, result.Stats.FinalValue)
	suite.Equal(0.0, result.Stats.TotalReturnPct)
	suite.Equal(0, result.Stats.NumberOfTrades)
}

func (suite *BacktestEngineV1TestSuite) TestRunUpstreamFetchError() {
	suite.source.EXPECT().FetchSeries(gomock.Any(), gomock.Any()).
		Return(types.PriceSeries{}, fmt.Errorf("connection refused")).
		Times(1)

	var endErr error

	onEnd := engine_types.OnRunEndCallback(func(runID string, err error) {
		endErr = err
	})

	_, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunEnd: &onEnd})
	suite.Require().Error(err)
	suite.True(errors.IsUpstreamFetchError(err))
	suite.Contains(err.Error(), "ETH-USD")
	suite.Equal(err, endErr)
}

func (suite *BacktestEngineV1TestSuite) TestRunEmptySeriesIsUpstreamError() {
	anchor, _ := suite.laggedPair(1)
	suite.serve(anchor, types.PriceSeries{Symbol: "AVAX-USD"})

	_, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().Error(err)
	suite.True(errors.IsUpstreamFetchError(err))
	suite.Contains(err.Error(), "AVAX-USD")
}

func (suite *BacktestEngineV1TestSuite) TestRunInsufficientAlignedData() {
	anchor := mocks.SeriesFromPrices("ETH-USD", suite.start, time.Hour, 10, 11, 12)
	target := mocks.SeriesFromPrices("AVAX-USD", suite.start.Add(2*time.Hour), time.Hour, 20, 21, 22)
	suite.serve(anchor, target)

	_, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *BacktestEngineV1TestSuite) TestRunCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.engine.Run(ctx, engine_types.LifecycleCallbacks{})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestEngineV1TestSuite) TestRunCallbackAbort() {
	anchor, target := suite.laggedPair(2)
	suite.serve(anchor, target)

	onLag := engine_types.OnLagSelectedCallback(func(runID string, lag optional.Option[int]) error {
		return fmt.Errorf("stop")
	})

	_, err := suite.engine.Run(context.Background(), engine_types.LifecycleCallbacks{OnLagSelected: &onLag})
	suite.Require().Error(err)
	suite.Contains(err.Error(), "stop")
}

func (suite *BacktestEngineV1TestSuite) TestPreRunChecks() {
	uninitialized := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	_, err := uninitialized.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestInitFailed))

	noSource := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(noSource.InitializeWithConfig(DefaultConfig()))
	_, err = noSource.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))

	suite.True(errors.HasCode(noSource.SetPriceSource(nil), errors.ErrCodeBacktestNoDatasource))
}

func (suite *BacktestEngineV1TestSuite) TestInitialize() {
	engine := NewBacktestEngineV1WithLogger(logger.NewNopLogger())

	err := engine.Initialize(`
anchor: BTC-USD
target: SOL-USD
interval: 1d
max_lag: 10
`)
	suite.Require().NoError(err)
	suite.Equal("BTC-USD", engine.Config().Anchor)
	suite.Equal(10, engine.Config().MaxLag)
	suite.Equal(0.3, engine.Config().CorrThreshold)

	err = engine.Initialize("max_lag: [1, 2]")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	err = engine.Initialize("max_lag: 0")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := suite.engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
	suite.Contains(schema, "return_threshold")
}
