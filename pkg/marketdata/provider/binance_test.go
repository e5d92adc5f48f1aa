package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klines    []*binance.Kline
	klinesErr error
	// For pagination testing, returns a different page on each call
	callCount     int
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
	requests      []mockBinanceKlinesService
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	start    int64
	end      int64
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime

	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime

	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	m.client.requests = append(m.client.requests, *m)

	if len(m.client.klinesPerCall) > 0 {
		idx := m.client.callCount
		m.client.callCount++

		if idx < len(m.client.klinesPerCall) {
			var err error
			if idx < len(m.client.errorsPerCall) {
				err = m.client.errorsPerCall[idx]
			}

			return m.client.klinesPerCall[idx], err
		}

		return nil, nil
	}

	return m.client.klines, m.client.klinesErr
}

// minuteKlines builds n one-minute klines starting at startMs.
func minuteKlines(startMs int64, n int) []*binance.Kline {
	klines := make([]*binance.Kline, n)
	for i := range klines {
		open := startMs + int64(i)*60000
		klines[i] = &binance.Kline{
			OpenTime:  open,
			Open:      "100.0",
			High:      "101.0",
			Low:       "99.0",
			Close:     fmt.Sprintf("%d.5", 100+i),
			Volume:    "10",
			CloseTime: open + 59999,
		}
	}

	return klines
}

type BinanceClientTestSuite struct {
	suite.Suite
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	binanceClient, ok := client.(*BinanceClient)
	suite.Require().True(ok)
	suite.Nil(binanceClient.writer)

	_, ok = binanceClient.apiClient.(*binanceClientWrapper)
	suite.True(ok, "apiClient should be a binanceClientWrapper")
}

func (suite *BinanceClientTestSuite) TestDownloadWithoutWriter() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	_, err := client.Download(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "writer is not configured")
}

func (suite *BinanceClientTestSuite) TestDownloadWithInvalidTimespan() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{})

	_, err := client.Download(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), 2, models.Week, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to convert timespan")
}

func (suite *BinanceClientTestSuite) TestConvertTimespanToBinanceInterval() {
	tests := []struct {
		timespan   models.Timespan
		multiplier int
		expected   string
		expectErr  bool
	}{
		{models.Minute, 1, "1m", false},
		{models.Minute, 15, "15m", false},
		{models.Hour, 4, "4h", false},
		{models.Day, 1, "1d", false},
		{models.Week, 1, "1w", false},
		{models.Week, 2, "", true},
		{models.Month, 1, "1M", false},
		{models.Month, 3, "", true},
		{models.Quarter, 1, "", true},
	}

	for _, tt := range tests {
		suite.Run(fmt.Sprintf("%d_%s", tt.multiplier, tt.timespan), func() {
			interval, err := convertTimespanToBinanceInterval(tt.timespan, tt.multiplier)
			if tt.expectErr {
				suite.Error(err)

				return
			}

			suite.NoError(err)
			suite.Equal(tt.expected, interval)
		})
	}
}

func (suite *BinanceClientTestSuite) TestProcessKlines() {
	mockW := &mockWriter{}
	klines := minuteKlines(1704067200000, 2)

	suite.Require().NoError(processKlines(mockW, "BTCUSDT", klines))
	suite.Require().Len(mockW.writtenData, 2)
	suite.Equal("BTCUSDT", mockW.writtenData[0].Symbol)
	suite.Equal(time.UnixMilli(1704067200000).UTC(), mockW.writtenData[0].Time)
	suite.InDelta(100.5, mockW.writtenData[0].Close, 1e-9)
	suite.InDelta(101.5, mockW.writtenData[1].Close, 1e-9)
}

func (suite *BinanceClientTestSuite) TestProcessKlinesWithInvalidNumbers() {
	mockW := &mockWriter{}
	klines := []*binance.Kline{{OpenTime: 1704067200000, Open: "invalid", High: "x", Low: "y", Close: "z", Volume: "w"}}

	suite.Require().NoError(processKlines(mockW, "BTCUSDT", klines))
	suite.Require().Len(mockW.writtenData, 1)
	suite.Zero(mockW.writtenData[0].Close)
}

func (suite *BinanceClientTestSuite) TestDownloadSuccess() {
	mockAPI := &mockBinanceAPIClient{klines: minuteKlines(1704067200000, 2)}
	mockW := &mockWriter{outputPath: "/tmp/test.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	path, err := client.Download(context.Background(), "BTCUSDT", start, end, 1, models.Minute, nil)
	suite.Require().NoError(err)
	suite.Equal("/tmp/test.parquet", path)
	suite.Len(mockW.writtenData, 2)
	suite.True(mockW.initialized)

	suite.Require().Len(mockAPI.requests, 1)
	suite.Equal("BTCUSDT", mockAPI.requests[0].symbol)
	suite.Equal("1m", mockAPI.requests[0].interval)
	suite.Equal(start.UnixMilli(), mockAPI.requests[0].start)
	suite.Equal(end.UnixMilli(), mockAPI.requests[0].end)
}

func (suite *BinanceClientTestSuite) TestDownloadPagination() {
	startMs := int64(1704067200000)
	firstPage := minuteKlines(startMs, binancePageSize)
	secondPage := minuteKlines(startMs+int64(binancePageSize)*60000, 100)

	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{firstPage, secondPage}}
	mockW := &mockWriter{outputPath: "/tmp/paged.parquet"}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	_, err := client.Download(context.Background(), "BTCUSDT", time.UnixMilli(startMs), time.UnixMilli(startMs+int64(1000*60000)), 1, models.Minute, nil)
	suite.Require().NoError(err)
	suite.Len(mockW.writtenData, binancePageSize+100)
	suite.Require().Len(mockAPI.requests, 2)
	suite.Equal(firstPage[len(firstPage)-1].CloseTime+1, mockAPI.requests[1].start)
}

func (suite *BinanceClientTestSuite) TestDownloadPaginationStopsAtEndTime() {
	startMs := int64(1704067200000)
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{minuteKlines(startMs, binancePageSize)}}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(&mockWriter{})

	// The full first page already covers the requested window
	_, err := client.Download(context.Background(), "BTCUSDT", time.UnixMilli(startMs), time.UnixMilli(startMs+int64(binancePageSize-1)*60000), 1, models.Minute, nil)
	suite.Require().NoError(err)
	suite.Len(mockAPI.requests, 1)
}

func (suite *BinanceClientTestSuite) TestDownloadAPIError() {
	mockW := &mockWriter{}
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klinesErr: errors.New("rate limited")})
	client.ConfigWriter(mockW)

	_, err := client.Download(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to fetch klines from Binance")
	suite.Contains(err.Error(), "rate limited")
	suite.Equal(1, mockW.finalizeCallCount)
}

func (suite *BinanceClientTestSuite) TestDownloadAPIErrorWithFinalizeError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klinesErr: errors.New("rate limited")})
	client.ConfigWriter(&mockWriter{finalizeErr: errors.New("finalize also failed")})

	_, err := client.Download(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to fetch klines from Binance")
	suite.Contains(err.Error(), "also failed to finalize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadWriteErrorOnSecondPage() {
	startMs := int64(1704067200000)
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{
		minuteKlines(startMs, binancePageSize),
		minuteKlines(startMs+int64(binancePageSize)*60000, 10),
	}}
	mockW := &mockWriter{writeErr: errors.New("disk full"), writeErrAfterN: binancePageSize}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(mockW)

	_, err := client.Download(context.Background(), "BTCUSDT", time.UnixMilli(startMs), time.UnixMilli(startMs+int64(1000*60000)), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to process klines")
	suite.Len(mockW.writtenData, binancePageSize)
}

func (suite *BinanceClientTestSuite) TestDownloadFinalizeError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: minuteKlines(1704067200000, 1)})
	client.ConfigWriter(&mockWriter{finalizeErr: errors.New("finalize failed")})

	_, err := client.Download(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to finalize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadProgressIsRelative() {
	startMs := int64(1704067200000)
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{
		minuteKlines(startMs, binancePageSize),
		minuteKlines(startMs+int64(binancePageSize)*60000, 10),
	}}

	client := NewBinanceClientWithAPI(mockAPI)
	client.ConfigWriter(&mockWriter{})

	var currents []float64

	var total float64

	_, err := client.Download(context.Background(), "BTCUSDT", time.UnixMilli(startMs), time.UnixMilli(startMs+int64(1000*60000)), 1, models.Minute, func(current float64, t float64, message string) {
		currents = append(currents, current)
		total = t
	})
	suite.Require().NoError(err)
	suite.Equal(float64(1000*60000), total)
	suite.Require().Len(currents, 2)
	suite.Zero(currents[0])
	suite.Equal(float64(binancePageSize*60000), currents[1])
}
