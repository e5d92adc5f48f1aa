package provider

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderYahoo   ProviderType = "yahoo"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider
	// Writer is used to write the market data to the database.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the data for the given ticker and date range.
	// The context can be used to cancel the download operation.
	// example:
	// Download(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Minute, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// Polygon needs the API key as config. Yahoo accepts an optional base URL.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	case ProviderYahoo:
		baseURL, _ := config.(string)

		return NewYahooClient(baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

// reportProgress forwards progress to onProgress when one is set.
func reportProgress(onProgress OnDownloadProgress, current, total float64, message string) {
	if onProgress == nil {
		return
	}

	onProgress(current, total, message)
}

// TerminalProgress renders download progress as a percentage bar on w.
// A new bar starts whenever the message changes.
func TerminalProgress(w io.Writer) OnDownloadProgress {
	var (
		bar     *progressbar.ProgressBar
		message string
	)

	return func(current, total float64, msg string) {
		if total <= 0 {
			return
		}

		if bar == nil || msg != message {
			if bar != nil {
				_ = bar.Finish()
			}

			bar = progressbar.NewOptions(100,
				progressbar.OptionSetDescription(msg),
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetPredictTime(false),
				progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
			)
			message = msg
		}

		_ = bar.Set(int(min(current/total, 1) * 100))
	}
}
