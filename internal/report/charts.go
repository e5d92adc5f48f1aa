package report

import (
	"fmt"
	"math"
	"strconv"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

const (
	chartWidth  = 900
	chartHeight = 500
)

// RenderLagChart draws correlation against lag as a PNG bar chart. Undefined lags are drawn as 0.
func RenderLagChart(table []types.LagCorrelation) ([]byte, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("lag table is empty")
	}

	values := make([]float64, len(table))
	labels := make([]string, len(table))

	for i, entry := range table {
		values[i] = entry.Correlation.TakeOr(0)
		labels[i] = strconv.Itoa(entry.Lag)
	}

	yMin, yMax := -1.0, 1.0

	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleTextOptionFunc("Correlation vs Lag"),
		charts.XAxisDataOptionFunc(labels),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 4,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
		charts.PNGTypeOption(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render lag chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lag chart bytes: %w", err)
	}

	return buf, nil
}

// RenderEquityChart draws the portfolio value series as a PNG line chart.
func RenderEquityChart(title string, values []types.PortfolioValue) ([]byte, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("portfolio value series is empty")
	}

	points := make([]float64, len(values))
	labels := make([]string, len(values))
	minVal, maxVal := math.Inf(1), math.Inf(-1)

	for i, v := range values {
		points[i] = v.Value
		labels[i] = v.Time.Format("2006-01-02")
		minVal = math.Min(minVal, v.Value)
		maxVal = math.Max(maxVal, v.Value)
	}

	padding := (maxVal - minVal) * 0.1
	if padding == 0 {
		padding = math.Max(maxVal*0.05, 1)
	}

	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(labels) <= 30 {
		splitNum = max(len(labels)/3, 1)
	}

	p, err := charts.LineRender(
		[][]float64{points},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
		charts.PNGTypeOption(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render equity chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate equity chart bytes: %w", err)
	}

	return buf, nil
}
