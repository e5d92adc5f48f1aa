package engine

import (
	"context"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"go.uber.org/zap"
)

// fetchSeries loads one symbol from the price source. Every failure, including an
// empty series, is reported as an upstream fetch error.
func (b *BacktestEngineV1) fetchSeries(ctx context.Context, symbol string) (types.PriceSeries, error) {
	if err := checkContext(ctx); err != nil {
		return types.PriceSeries{}, err
	}

	series, err := b.priceSource.FetchSeries(ctx, b.config.SeriesRequest(symbol))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.PriceSeries{}, ctxErr
		}

		b.log.Error("Failed to fetch prices",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		if errors.IsUpstreamFetchError(err) {
			return types.PriceSeries{}, err
		}

		return types.PriceSeries{}, errors.NewUpstreamFetchError(symbol, err)
	}

	if series.Len() == 0 {
		b.log.Error("Price source returned no prices",
			zap.String("symbol", symbol),
		)

		return types.PriceSeries{}, errors.NewUpstreamFetchError(symbol,
			errors.Newf(errors.ErrCodeNoDataFound, "no prices returned for %s", symbol))
	}

	if series.Symbol == "" {
		series.Symbol = symbol
	}

	b.log.Debug("Prices fetched",
		zap.String("symbol", symbol),
		zap.Int("points", series.Len()),
	)

	return series, nil
}

// checkContext returns the context error once ctx is done.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}
