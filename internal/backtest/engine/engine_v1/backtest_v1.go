package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/pairwise"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config      BacktestEngineV1Config
	log         *logger.Logger
	priceSource engine.PriceSource
	initialized bool
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:      DefaultConfig(),
		log:         nil,
		priceSource: nil,
		initialized: false,
	}
}

// NewBacktestEngineV1WithLogger creates an engine that logs through log instead of a fresh production logger.
func NewBacktestEngineV1WithLogger(log *logger.Logger) *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:      DefaultConfig(),
		log:         log,
		priceSource: nil,
		initialized: false,
	}
}

// Initialize implements engine.Engine.
// The YAML document is applied on top of DefaultConfig.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg := DefaultConfig()

	// parse the config
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return b.InitializeWithConfig(cfg)
}

// InitializeWithConfig validates cfg and makes it the configuration of the next run.
func (b *BacktestEngineV1) InitializeWithConfig(cfg BacktestEngineV1Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// initialize the logger
	if b.log == nil {
		var loggerError error

		b.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return loggerError
		}
	}

	b.config = cfg
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("anchor", cfg.Anchor),
		zap.String("target", cfg.Target),
		zap.String("interval", cfg.Interval),
		zap.Int("max_lag", cfg.MaxLag),
		zap.Float64("corr_threshold", cfg.CorrThreshold),
		zap.Float64("return_threshold", cfg.ReturnThreshold),
		zap.Float64("starting_capital", cfg.StartingCapital),
	)

	return nil
}

// Config returns the configuration of the next run.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// SetPriceSource implements engine.Engine.
func (b *BacktestEngineV1) SetPriceSource(source engine.PriceSource) error {
	if source == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "price source is nil")
	}

	b.priceSource = source

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result types.AnalysisResult, err error) {
	if err := b.preRunCheck(); err != nil {
		return types.AnalysisResult{}, err
	}

	runID := uuid.New().String()

	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(runID, err)
		}
	}()

	if callbacks.OnRunStart != nil {
		if err = (*callbacks.OnRunStart)(runID, b.config.Anchor, b.config.Target); err != nil {
			return types.AnalysisResult{}, fmt.Errorf("run start callback failed: %w", err)
		}
	}

	params := b.config.Params()

	anchorPrices, err := b.fetchSeries(ctx, b.config.Anchor)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	targetPrices, err := b.fetchSeries(ctx, b.config.Target)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	anchorAligned, targetAligned, err := pairwise.Align(anchorPrices, targetPrices)
	if err != nil {
		b.log.Warn("Not enough aligned prices",
			zap.String("run_id", runID),
			zap.Int("anchor_points", anchorPrices.Len()),
			zap.Int("target_points", targetPrices.Len()),
			zap.Error(err),
		)

		return types.AnalysisResult{}, err
	}

	b.log.Debug("Series aligned",
		zap.String("run_id", runID),
		zap.Int("aligned_points", anchorAligned.Len()),
	)

	if err := checkContext(ctx); err != nil {
		return types.AnalysisResult{}, err
	}

	anchorReturns := pairwise.Returns(anchorAligned)
	targetReturns := pairwise.Returns(targetAligned)

	table, lag := pairwise.FindBestLag(anchorReturns, targetReturns, params)

	lagFields := []zap.Field{
		zap.String("run_id", runID),
		zap.Int("lags_scanned", len(table)),
	}
	if lag.IsSome() {
		lagFields = append(lagFields, zap.Int("lag", lag.Unwrap()))
	}

	b.log.Debug("Lag scan complete", lagFields...)

	if callbacks.OnLagSelected != nil {
		if err = (*callbacks.OnLagSelected)(runID, lag); err != nil {
			return types.AnalysisResult{}, fmt.Errorf("lag selected callback failed: %w", err)
		}
	}

	if err := checkContext(ctx); err != nil {
		return types.AnalysisResult{}, err
	}

	signals := pairwise.GenerateSignals(anchorReturns, lag, params.ReturnThreshold)

	values, err := Simulate(signals, targetAligned, params.StartingCapital)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	stats := Summarize(values, targetAligned, params.StartingCapital)

	result = types.AnalysisResult{
		ID:            runID,
		Timestamp:     time.Now(),
		Anchor:        b.config.Anchor,
		Target:        b.config.Target,
		Interval:      b.config.Interval,
		Params:        params,
		AlignedPoints: anchorAligned.Len(),
		LagTable:      table,
		SelectedLag:   lag,
		Signals:       signals,
		Portfolio:     values,
		Stats:         stats,
	}

	b.log.Info("Analysis complete",
		zap.String("run_id", runID),
		zap.String("anchor", result.Anchor),
		zap.String("target", result.Target),
		zap.Bool("lag_found", lag.IsSome()),
		zap.Float64("final_value", stats.FinalValue),
		zap.Float64("total_return_pct", stats.TotalReturnPct),
	)

	return result, nil
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if b.priceSource == nil {
		b.log.Error("No price source set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no price source set")
	}

	return nil
}
