package mocks

//go:generate mockgen -destination=./mock_price_source.go -package=mocks github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine PriceSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_cache.go -package=mocks github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/cache Cache
