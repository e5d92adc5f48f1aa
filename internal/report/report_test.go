package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

var pngMagic = []byte("\x89PNG")

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func sampleResult() types.AnalysisResult {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.AnalysisResult{
		ID:            "run-1",
		Timestamp:     base,
		Anchor:        "ETH-USD",
		Target:        "AVAX-USD",
		Interval:      "4h",
		Params:        types.AnalysisParams{MaxLag: 3, CorrThreshold: 0.3, ReturnThreshold: 0.01, StartingCapital: 1000},
		AlignedPoints: 4,
		LagTable: []types.LagCorrelation{
			{Lag: 1, Correlation: optional.Some(0.12), Samples: 2},
			{Lag: 2, Correlation: optional.Some(0.81), Samples: 1},
			{Lag: 3, Correlation: optional.None[float64](), Samples: 0},
		},
		SelectedLag: optional.Some(2),
		Signals: []types.Signal{
			{Time: base.Add(4 * time.Hour), Type: types.SignalTypeHold},
			{Time: base.Add(8 * time.Hour), Type: types.SignalTypeBuy},
			{Time: base.Add(12 * time.Hour), Type: types.SignalTypeHold},
			{Time: base.Add(16 * time.Hour), Type: types.SignalTypeSell},
		},
		Portfolio: []types.PortfolioValue{
			{Time: base.Add(4 * time.Hour), Value: 1000, Position: types.PositionFlat},
			{Time: base.Add(8 * time.Hour), Value: 980.198, Position: types.PositionLong},
			{Time: base.Add(12 * time.Hour), Value: 1039.604, Position: types.PositionFlat},
		},
		Stats: types.BacktestStats{
			StartingCapital:     1000,
			FinalValue:          1039.604,
			TotalReturnPct:      3.9604,
			BuyAndHoldReturnPct: 5,
			NumberOfTrades:      1,
			MaxDrawdownPct:      1.9802,
		},
	}
}

func (suite *ReportTestSuite) TestLagMessage() {
	result := sampleResult()
	suite.Equal("Best Lag = 2 bars (Interval = 4h)", LagMessage(result))

	result.SelectedLag = optional.None[int]()
	suite.Equal("No significant lag correlation found above threshold.", LagMessage(result))
}

func (suite *ReportTestSuite) TestCapitalMessages() {
	stats := sampleResult().Stats

	suite.Equal("Final Capital $1039.60", FinalCapitalMessage(stats))
	suite.Equal("Total Return 3.96%", TotalReturnMessage(stats))

	stats.TotalReturnPct = -12.345
	suite.Equal("Total Return -12.35%", TotalReturnMessage(stats))
}

func (suite *ReportTestSuite) TestToReport() {
	report := ToReport(sampleResult())

	suite.Equal("run-1", report.ID)
	suite.Require().Len(report.LagTable, 3)
	suite.Require().NotNil(report.LagTable[0].Correlation)
	suite.InDelta(0.12, *report.LagTable[0].Correlation, 1e-12)
	suite.Nil(report.LagTable[2].Correlation)
	suite.Require().NotNil(report.SelectedLag)
	suite.Equal(2, *report.SelectedLag)
	suite.Require().NotNil(report.BestCorrelation)
	suite.InDelta(0.81, *report.BestCorrelation, 1e-12)
	suite.Equal("Best Lag = 2 bars (Interval = 4h)", report.Message)
	suite.Equal(map[string]int{"BUY": 1, "SELL": 1, "HOLD": 2}, report.SignalCounts)
	suite.Len(report.Portfolio, 3)
}

func (suite *ReportTestSuite) TestToReportNoLag() {
	result := sampleResult()
	result.SelectedLag = optional.None[int]()
	result.Portfolio = nil

	report := ToReport(result)
	suite.Nil(report.SelectedLag)
	suite.Nil(report.BestCorrelation)
	suite.Equal(NoLagMessage, report.Message)
	suite.NotNil(report.Portfolio)
}

func (suite *ReportTestSuite) TestReportEncoding() {
	report := ToReport(sampleResult())

	raw, err := json.Marshal(report)
	suite.Require().NoError(err)

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal(raw, &decoded))

	table, ok := decoded["lag_table"].([]any)
	suite.Require().True(ok)
	suite.Require().Len(table, 3)

	undefined, ok := table[2].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(undefined, "correlation")
	suite.Nil(undefined["correlation"])

	out, err := yaml.Marshal(report)
	suite.Require().NoError(err)
	suite.Contains(string(out), "selected_lag: 2")
	suite.Contains(string(out), "correlation: null")
}

func (suite *ReportTestSuite) TestRenderSummary() {
	summary := RenderSummary(sampleResult())

	suite.Contains(summary, "Best Lag = 2 bars (Interval = 4h)")
	suite.Contains(summary, "Final Capital $1039.60")
	suite.Contains(summary, "Total Return 3.96%")
	suite.Contains(summary, "0.8100")
	suite.Contains(summary, "n/a")

	result := sampleResult()
	result.SelectedLag = optional.None[int]()
	suite.Contains(RenderSummary(result), NoLagMessage)
}

func longLagTable(n int) []types.LagCorrelation {
	table := make([]types.LagCorrelation, n)
	for i := range table {
		table[i] = types.LagCorrelation{Lag: i + 1, Correlation: optional.Some(0.1), Samples: 100}
	}

	return table
}

func (suite *ReportTestSuite) TestLagWindow() {
	tests := []struct {
		name     string
		size     int
		selected optional.Option[int]
		from, to int
	}{
		{name: "short table", size: 24, selected: optional.Some(3), from: 0, to: 24},
		{name: "no selection", size: 500, selected: optional.None[int](), from: 0, to: maxTableRows},
		{name: "centered on selection", size: 500, selected: optional.Some(420), from: 394, to: 444},
		{name: "selection near the end", size: 500, selected: optional.Some(499), from: 450, to: 500},
		{name: "selection near the start", size: 500, selected: optional.Some(2), from: 0, to: maxTableRows},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			from, to := lagWindow(longLagTable(tc.size), tc.selected)
			suite.Equal(tc.from, from)
			suite.Equal(tc.to, to)
		})
	}
}

func (suite *ReportTestSuite) TestRenderLagTableShowsSelectedLag() {
	out := RenderLagTable(longLagTable(500), optional.Some(420))

	suite.Contains(out, "420")
	suite.Contains(out, "394 more")
	suite.Contains(out, "56 more")
	suite.Contains(out, "444")
	suite.NotContains(out, "445")

	out = RenderLagTable(longLagTable(60), optional.None[int]())
	suite.Contains(out, "10 more")
	suite.NotContains(out, "51")

	suite.NotContains(RenderLagTable(longLagTable(5), optional.Some(2)), "more")
}

func (suite *ReportTestSuite) TestRenderLagChart() {
	buf, err := RenderLagChart(sampleResult().LagTable)
	suite.Require().NoError(err)
	suite.True(bytes.HasPrefix(buf, pngMagic))

	_, err = RenderLagChart(nil)
	suite.Error(err)
}

func (suite *ReportTestSuite) TestRenderEquityChart() {
	buf, err := RenderEquityChart("AVAX-USD equity", sampleResult().Portfolio)
	suite.Require().NoError(err)
	suite.True(bytes.HasPrefix(buf, pngMagic))

	flat := []types.PortfolioValue{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1000},
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 1000},
	}
	buf, err = RenderEquityChart("flat", flat)
	suite.Require().NoError(err)
	suite.NotEmpty(buf)

	_, err = RenderEquityChart("empty", nil)
	suite.Error(err)
}
