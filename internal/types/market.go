package types

import (
	"math"
	"sort"
	"time"
)

// MarketData is a single OHLCV bar as delivered by a market data provider.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// PricePoint is one closing price at a timestamp.
type PricePoint struct {
	Time  time.Time `json:"time" yaml:"time"`
	Price float64   `json:"price" yaml:"price"`
}

// PriceSeries is an ordered closing-price series for one symbol.
// Timestamps are strictly increasing and prices are positive.
type PriceSeries struct {
	Symbol string       `json:"symbol" yaml:"symbol"`
	Points []PricePoint `json:"points" yaml:"points"`
}

// SeriesRequest describes a price series to fetch from a PriceSource.
type SeriesRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval string
}

// NewPriceSeries builds a PriceSeries from raw bars.
// Bars are sorted by time, duplicate timestamps keep the last bar seen and
// bars with a missing or non-positive close are dropped.
func NewPriceSeries(symbol string, data []MarketData) PriceSeries {
	bars := make([]MarketData, len(data))
	copy(bars, data)

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	points := make([]PricePoint, 0, len(bars))

	for _, bar := range bars {
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
			continue
		}

		if n := len(points); n > 0 && points[n-1].Time.Equal(bar.Time) {
			points[n-1].Price = bar.Close

			continue
		}

		points = append(points, PricePoint{Time: bar.Time, Price: bar.Close})
	}

	return PriceSeries{Symbol: symbol, Points: points}
}

// Len returns the number of points in the series.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Prices returns the price values in order.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}

	return prices
}

// Times returns the timestamps in order.
func (s PriceSeries) Times() []time.Time {
	times := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		times[i] = p.Time
	}

	return times
}

// ReturnPoint is the fractional return realized at a timestamp.
type ReturnPoint struct {
	Time   time.Time `json:"time" yaml:"time"`
	Return float64   `json:"return" yaml:"return"`
}

// ReturnSeries is the percentage-return series derived from a PriceSeries.
// Its index is the price index without the first timestamp.
type ReturnSeries struct {
	Symbol string        `json:"symbol" yaml:"symbol"`
	Points []ReturnPoint `json:"points" yaml:"points"`
}

// Len returns the number of returns in the series.
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// Values returns the return values in order.
func (s ReturnSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Return
	}

	return values
}

// bucketOrigin is the Monday that bar buckets are counted from, matching DuckDB's time_bucket default.
var bucketOrigin = time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

// BucketStart returns the start of the width-sized bucket containing t.
func BucketStart(t time.Time, width time.Duration) time.Time {
	offset := t.UTC().Sub(bucketOrigin)

	buckets := offset / width
	if offset < 0 && offset%width != 0 {
		buckets--
	}

	return bucketOrigin.Add(buckets * width)
}

// Resample keeps the last price of every width-sized bucket, stamped with the bucket start.
// A non-positive width returns the series unchanged.
func (s PriceSeries) Resample(width time.Duration) PriceSeries {
	if width <= 0 {
		return s
	}

	out := PriceSeries{Symbol: s.Symbol, Points: make([]PricePoint, 0, len(s.Points))}

	for _, p := range s.Points {
		bucket := BucketStart(p.Time, width)

		if n := len(out.Points); n > 0 && out.Points[n-1].Time.Equal(bucket) {
			out.Points[n-1].Price = p.Price

			continue
		}

		out.Points = append(out.Points, PricePoint{Time: bucket, Price: p.Price})
	}

	return out
}

// Window returns the points with start <= time <= end. A zero bound is open.
func (s PriceSeries) Window(start, end time.Time) PriceSeries {
	out := PriceSeries{Symbol: s.Symbol, Points: make([]PricePoint, 0, len(s.Points))}

	for _, p := range s.Points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}

		if !end.IsZero() && p.Time.After(end) {
			continue
		}

		out.Points = append(out.Points, p)
	}

	return out
}
