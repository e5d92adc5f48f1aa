package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// DataGenerator generates realistic market data for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "ETH-USD", "AVAX-USD")
	Symbol string
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of data points to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical move per bar)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     4 * time.Hour,
		Count:        500,
		InitialPrice: 100.0,
		Volatility:   0.02,
		Trend:        0.0,
	}
}

// Returns draws count normally distributed returns with the configured volatility and drift.
func (g *DataGenerator) Returns(config GeneratorConfig, count int) []float64 {
	returns := make([]float64, count)
	drift := 0.0

	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for i := range returns {
		// Box-Muller transform for a standard normal draw
		u1 := g.rng.Float64()
		if u1 == 0 {
			u1 = math.SmallestNonzeroFloat64
		}

		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		r := config.Volatility*z + drift
		if r <= -0.99 {
			r = -0.99
		}

		returns[i] = r
	}

	return returns
}

// Generate creates a slice of MarketData based on the configuration.
// Closes follow a geometric random walk.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	if config.Count <= 0 {
		return []types.MarketData{}
	}

	return FromReturns(config, g.Returns(config, config.Count-1))
}

// GenerateLaggedPair creates an anchor series and a target series whose return at
// bar t equals the anchor return at bar t-lag. The first lag target returns are
// independent noise.
func (g *DataGenerator) GenerateLaggedPair(anchor GeneratorConfig, target GeneratorConfig, lag int) ([]types.MarketData, []types.MarketData) {
	count := anchor.Count - 1
	if count < 0 {
		count = 0
	}

	anchorReturns := g.Returns(anchor, count)
	targetReturns := g.Returns(target, count)

	for t := lag; t < count; t++ {
		targetReturns[t] = anchorReturns[t-lag]
	}

	target.Count = anchor.Count
	target.StartTime = anchor.StartTime
	target.Interval = anchor.Interval

	return FromReturns(anchor, anchorReturns), FromReturns(target, targetReturns)
}

// FromReturns compounds returns from config.InitialPrice into bars spaced by config.Interval.
func FromReturns(config GeneratorConfig, returns []float64) []types.MarketData {
	data := make([]types.MarketData, len(returns)+1)
	price := config.InitialPrice
	currentTime := config.StartTime

	for i := range data {
		if i > 0 {
			price *= 1 + returns[i-1]
		}

		data[i] = types.MarketData{
			Id:     "",
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 0,
		}

		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// SeriesFromPrices builds a PriceSeries with one bar per interval starting at start.
func SeriesFromPrices(symbol string, start time.Time, interval time.Duration, prices ...float64) types.PriceSeries {
	points := make([]types.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = types.PricePoint{Time: start.Add(time.Duration(i) * interval), Price: p}
	}

	return types.PriceSeries{Symbol: symbol, Points: points}
}
