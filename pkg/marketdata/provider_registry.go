package marketdata

import (
	"fmt"

	"github.com/rxtech-lab/pairwise-alpha/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock and crypto aggregates with historical OHLCV data",
		RequiresAuth: true,
	},
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange klines for spot trading pairs",
		RequiresAuth: false,
	},
	ProviderYahoo: {
		Name:         string(ProviderYahoo),
		DisplayName:  "Yahoo Finance",
		Description:  "Public chart API covering stocks, ETFs and crypto pairs such as ETH-USD",
		RequiresAuth: false,
	},
}

// GetSupportedProviders returns a list of all supported provider names.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// downloadConfigFor returns an empty download configuration for the provider.
func downloadConfigFor(providerName string) (any, error) {
	switch ProviderType(providerName) {
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return PolygonDownloadConfig{}, nil
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return BinanceDownloadConfig{}, nil
	case ProviderYahoo:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return YahooDownloadConfig{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	config, err := downloadConfigFor(providerName)
	if err != nil {
		return "", err
	}

	return utils.GetSchemaFromConfig(config)
}

// GetDownloadKeychainFields returns the json names of the fields tagged keychain:"true".
// These hold secrets and should be read from the environment or a keychain rather than a config file.
func GetDownloadKeychainFields(providerName string) ([]string, error) {
	config, err := downloadConfigFor(providerName)
	if err != nil {
		return nil, err
	}

	return utils.GetKeychainFields(config), nil
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
// Returns the parsed config as an interface{} which can be type-asserted to the specific config type.
func ParseDownloadConfig(providerName string, jsonConfig string) (interface{}, error) {
	switch ProviderType(providerName) {
	case ProviderPolygon:
		return ParsePolygonConfig(jsonConfig)
	case ProviderBinance:
		return ParseBinanceConfig(jsonConfig)
	case ProviderYahoo:
		return ParseYahooConfig(jsonConfig)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}
