package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// Lifecycle callback types for analysis phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called when an analysis run begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, anchor string, target string) error

// OnLagSelectedCallback is called once the lag scan has finished.
// lag is None when no lag cleared the correlation threshold.
type OnLagSelectedCallback func(runID string, lag optional.Option[int]) error

// OnRunEndCallback is called when the run completes (always called via defer).
type OnRunEndCallback func(runID string, err error)

// LifecycleCallbacks holds all lifecycle callback functions for the engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnLagSelected *OnLagSelectedCallback
	OnRunEnd      *OnRunEndCallback
}

// PriceSource delivers closing-price series for a symbol.
type PriceSource interface {
	// FetchSeries returns the closing prices of req.Symbol within [req.Start, req.End] at req.Interval.
	FetchSeries(ctx context.Context, req types.SeriesRequest) (types.PriceSeries, error)
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetPriceSource sets the source the anchor and target series are fetched from.
	SetPriceSource(source PriceSource) error
	// Run fetches both series, scans for a lag and simulates the resulting signals.
	// The context can be used to cancel the run between stages.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (types.AnalysisResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
