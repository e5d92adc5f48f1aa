package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/writer"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const yahooChartPath = "/v8/finance/chart/{symbol}"

type yahooQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yahooQuote `json:"quote"`
	} `json:"indicators"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

// YahooClient downloads bars from the Yahoo Finance chart API.
type YahooClient struct {
	client *resty.Client
	writer writer.MarketDataWriter
}

// NewYahooClient creates a YahooClient. An empty baseURL uses DefaultYahooBaseURL.
func NewYahooClient(baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; pairwise-alpha)").
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}

			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &YahooClient{
		client: client,
		writer: nil,
	}
}

func (c *YahooClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download fetches the chart for ticker and writes every bar with a close price.
// Intervals Yahoo does not serve natively are fetched at a finer interval and resampled.
func (c *YahooClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, width, err := convertTimespanToYahooInterval(timespan, multiplier)
	if err != nil {
		return "", fmt.Errorf("failed to convert timespan to Yahoo interval: %w", err)
	}

	if c.writer == nil {
		return "", fmt.Errorf("writer is not configured")
	}

	err = c.writer.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	reportProgress(onProgress, 0, 1, fmt.Sprintf("Downloading %s from Yahoo", ticker))

	bars, err := c.fetchChart(ctx, ticker, startDate, endDate, interval)
	if err != nil {
		return "", c.abort(err)
	}

	if width > 0 {
		bars = resampleBars(bars, width)
	}

	for _, bar := range bars {
		if writeErr := c.writer.Write(bar); writeErr != nil {
			return "", c.abort(fmt.Errorf("failed to write market data: %w", writeErr))
		}
	}

	reportProgress(onProgress, 1, 1, fmt.Sprintf("Downloaded %d bars for %s", len(bars), ticker))

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, ticker string, startDate, endDate time.Time, interval string) ([]types.MarketData, error) {
	var result yahooChartResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(startDate.Unix(), 10),
			"period2":  strconv.FormatInt(endDate.Unix(), 10),
			"interval": interval,
		}).
		SetResult(&result).
		SetError(&result).
		Get(yahooChartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart from Yahoo: %w", err)
	}

	if chartErr := result.Chart.Error; chartErr != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s: %s", ticker, chartErr.Code, chartErr.Description)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("yahoo chart request for %s failed with status %d", ticker, resp.StatusCode())
	}

	if len(result.Chart.Result) == 0 {
		return nil, nil
	}

	return chartBars(ticker, result.Chart.Result[0]), nil
}

// abort finalizes the writer after a failure and folds any finalize error into err.
func (c *YahooClient) abort(err error) error {
	if _, finalizeErr := c.writer.Finalize(); finalizeErr != nil {
		return fmt.Errorf("%w; also failed to finalize writer: %v", err, finalizeErr)
	}

	return err
}

// chartBars converts one chart result into bars, dropping timestamps without a close.
func chartBars(ticker string, result yahooChartResult) []types.MarketData {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	quote := result.Indicators.Quote[0]
	bars := make([]types.MarketData, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		closePrice := valueAt(quote.Close, i)
		if closePrice == nil {
			continue
		}

		bar := types.MarketData{
			Id:     "",
			Symbol: ticker,
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *closePrice,
			High:   *closePrice,
			Low:    *closePrice,
			Close:  *closePrice,
			Volume: 0,
		}

		if v := valueAt(quote.Open, i); v != nil {
			bar.Open = *v
		}

		if v := valueAt(quote.High, i); v != nil {
			bar.High = *v
		}

		if v := valueAt(quote.Low, i); v != nil {
			bar.Low = *v
		}

		if v := valueAt(quote.Volume, i); v != nil {
			bar.Volume = *v
		}

		bars = append(bars, bar)
	}

	return bars
}

func valueAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}

	return values[i]
}

// resampleBars merges time-ordered bars into width-sized buckets stamped with the bucket start.
// The last close of a bucket wins.
func resampleBars(bars []types.MarketData, width time.Duration) []types.MarketData {
	out := make([]types.MarketData, 0, len(bars))

	for _, bar := range bars {
		bucket := types.BucketStart(bar.Time, width)

		if n := len(out); n > 0 && out[n-1].Time.Equal(bucket) {
			last := &out[n-1]
			last.High = max(last.High, bar.High)
			last.Low = min(last.Low, bar.Low)
			last.Close = bar.Close
			last.Volume += bar.Volume

			continue
		}

		bar.Time = bucket
		out = append(out, bar)
	}

	return out
}

// convertTimespanToYahooInterval maps a timespan to a Yahoo chart interval.
// A non-zero width means the bars must be resampled to that width after download.
// Ref: https://query1.finance.yahoo.com/v8/finance/chart intervals 1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo
func convertTimespanToYahooInterval(timespan models.Timespan, multiplier int) (string, time.Duration, error) {
	switch timespan {
	case models.Minute:
		switch multiplier {
		case 1, 2, 5, 15, 30, 90:
			return fmt.Sprintf("%dm", multiplier), 0, nil
		}
	case models.Hour:
		if multiplier == 1 {
			return "1h", 0, nil
		}

		if multiplier > 1 && 24%multiplier == 0 {
			return "1h", time.Duration(multiplier) * time.Hour, nil
		}
	case models.Day:
		switch multiplier {
		case 1, 5:
			return fmt.Sprintf("%dd", multiplier), 0, nil
		}
	case models.Week:
		if multiplier == 1 {
			return "1wk", 0, nil
		}
	case models.Month:
		switch multiplier {
		case 1, 3:
			return fmt.Sprintf("%dmo", multiplier), 0, nil
		}
	}

	return "", 0, fmt.Errorf("unsupported timespan for Yahoo: %d %s", multiplier, timespan)
}
