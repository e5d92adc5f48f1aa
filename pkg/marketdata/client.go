package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/metrics"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/cache"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/provider"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
	ProviderYahoo   = provider.ProviderYahoo
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
	WriterMemory WriterType = "memory"
)

// DefaultLookback is the window fetched when a request has no start time.
const DefaultLookback = 730 * 24 * time.Hour

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon binance yahoo"`
	WriterType    WriterType   `validate:"required,oneof=duckdb memory"`
	DataPath      string       `validate:"required_if=WriterType duckdb"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	// YahooBaseURL overrides the Yahoo Finance host.
	YahooBaseURL string
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Option customizes a Client.
type Option func(*Client)

// WithProgress reports download progress to onProgress.
func WithProgress(onProgress provider.OnDownloadProgress) Option {
	return func(c *Client) {
		c.onProgress = onProgress
	}
}

// WithCache memoizes FetchSeries results in store.
func WithCache(store cache.Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithMetrics records fetch durations and cache lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithProvider replaces the provider built from the configuration.
func WithProvider(p provider.Provider) Option {
	return func(c *Client) {
		c.provider = p
	}
}

// Client downloads data from a provider and serves it either as parquet files or as in-memory price series.
// It is safe for concurrent use. Provider calls are serialized because providers hold writer state.
type Client struct {
	mu         sync.Mutex
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	cache      cache.Cache
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, opts ...Option) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	c := &Client{
		config:   config,
		validate: validate,
		log:      logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.provider == nil {
		var providerConfig any

		switch config.ProviderType {
		case ProviderPolygon:
			providerConfig = config.PolygonApiKey
		case ProviderYahoo:
			providerConfig = config.YahooBaseURL
		}

		marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, providerConfig)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidProvider, fmt.Sprintf("failed to create %s client", config.ProviderType), err)
		}

		c.provider = marketProvider
	}

	return c, nil
}

// Download writes the requested bars to a parquet file under DataPath and returns its path.
// The file is named TICKER_START_END_MULTIPLIER_TIMESPAN.parquet.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if c.config.WriterType != WriterDuckDB {
		return "", errors.Newf(errors.ErrCodeInvalidConfiguration, "download needs the %s writer, client uses %s", WriterDuckDB, c.config.WriterType)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to setup writer", err)
	}

	defer func() {
		if closeErr := marketWriter.Close(); closeErr != nil {
			c.log.Warn("failed to close writer", zap.Error(closeErr))
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download failed", err)
	}

	c.log.Info("Downloaded market data",
		zap.String("ticker", params.Ticker),
		zap.String("provider", string(c.config.ProviderType)),
		zap.String("path", path),
	)

	return path, nil
}

// FetchSeries downloads the closing prices of one symbol into memory.
// Results are served from the cache when one is configured. Every failure is an upstream fetch error.
func (c *Client) FetchSeries(ctx context.Context, req types.SeriesRequest) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, errors.NewUpstreamFetchError(req.Symbol, err)
	}

	req, params, err := c.resolveRequest(req)
	if err != nil {
		return types.PriceSeries{}, errors.NewUpstreamFetchError(req.Symbol, err)
	}

	key := cache.Key(string(c.config.ProviderType), req)

	if c.cache != nil {
		cached, ok, cacheErr := c.cache.Get(ctx, key)
		if cacheErr != nil {
			c.log.Warn("fetch cache lookup failed", zap.String("key", key), zap.Error(cacheErr))
		}

		c.metrics.ObserveCache(ok)

		if ok {
			c.log.Debug("Serving series from cache", zap.String("symbol", req.Symbol), zap.Int("points", cached.Len()))

			return cached, nil
		}
	}

	bars, err := c.download(ctx, params)
	if err != nil {
		c.log.Error("Failed to fetch series", zap.String("symbol", req.Symbol), zap.Error(err))

		return types.PriceSeries{}, errors.NewUpstreamFetchError(req.Symbol, err)
	}

	series := types.NewPriceSeries(req.Symbol, bars).Window(req.Start, req.End)
	if series.Len() == 0 {
		return types.PriceSeries{}, errors.NewUpstreamFetchError(req.Symbol,
			errors.Newf(errors.ErrCodeNoDataFound, "no prices returned for %s", req.Symbol))
	}

	if c.cache != nil {
		if cacheErr := c.cache.Set(ctx, key, series); cacheErr != nil {
			c.log.Warn("fetch cache store failed", zap.String("key", key), zap.Error(cacheErr))
		}
	}

	c.log.Debug("Fetched series",
		zap.String("symbol", req.Symbol),
		zap.String("provider", string(c.config.ProviderType)),
		zap.Int("points", series.Len()),
	)

	return series, nil
}

// download runs one provider download into a memory writer.
func (c *Client) download(ctx context.Context, params DownloadParams) ([]types.MarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	memoryWriter := writer.NewMemoryWriter()
	c.provider.ConfigWriter(memoryWriter)

	started := time.Now()
	_, err := c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate, params.Multiplier, params.Timespan, c.onProgress)
	c.metrics.ObserveFetch(string(c.config.ProviderType), time.Since(started), err)

	if closeErr := memoryWriter.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, err
	}

	return memoryWriter.Data(), nil
}

// resolveRequest fills an open window and maps the interval to provider parameters.
func (c *Client) resolveRequest(req types.SeriesRequest) (types.SeriesRequest, DownloadParams, error) {
	timespan, err := ParseTimespan(req.Interval)
	if err != nil {
		return req, DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidTimespan, "invalid series interval", err)
	}

	if req.End.IsZero() {
		req.End = time.Now().UTC().Truncate(timespan.Duration())
	}

	if req.Start.IsZero() {
		req.Start = req.End.Add(-DefaultLookback)
	}

	params := DownloadParams{
		Ticker:     req.Symbol,
		StartDate:  req.Start,
		EndDate:    req.End,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}

	if err := c.validate.Struct(params); err != nil {
		return req, DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid series request", err)
	}

	return req, params, nil
}

// setupWriter creates the parquet writer for a download.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	outputFileName := fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Multiplier,
		params.Timespan)

	if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data path %s: %w", c.config.DataPath, err)
	}

	return writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, outputFileName)), nil
}
