package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/internal/version"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
)

// SupportedIntervals lists the bar intervals an analysis can run on.
var SupportedIntervals = []string{"1m", "5m", "15m", "30m", "1h", "2h", "4h", "1d", "1w"}

type BacktestEngineV1Config struct {
	EngineVersion   string                     `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version the config was written for or a semver constraint such as ~1.0. Empty skips the compatibility check"`
	Anchor          string                     `yaml:"anchor" json:"anchor" jsonschema:"title=Anchor,description=Symbol whose lagged returns drive the signal (e.g. ETH-USD),required" validate:"required"`
	Target          string                     `yaml:"target" json:"target" jsonschema:"title=Target,description=Symbol that is traded (e.g. AVAX-USD),required" validate:"required"`
	StartTime       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time of the analysis window"`
	EndTime         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time of the analysis window"`
	Interval        string                     `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Bar interval of both series,enum=1m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=1d,enum=1w" validate:"required,oneof=1m 5m 15m 30m 1h 2h 4h 1d 1w"`
	MaxLag          int                        `yaml:"max_lag" json:"max_lag" jsonschema:"title=Max Lag,description=Largest lag in bars to scan,minimum=1,maximum=500" validate:"min=1,max=500"`
	CorrThreshold   float64                    `yaml:"corr_threshold" json:"corr_threshold" jsonschema:"title=Correlation Threshold,description=Minimum best-lag correlation accepted as a signal,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	ReturnThreshold float64                    `yaml:"return_threshold" json:"return_threshold" jsonschema:"title=Return Threshold,description=Anchor return fraction needed to emit BUY or SELL (0.01 = 1%),exclusiveMinimum=0" validate:"gt=0"`
	StartingCapital float64                    `yaml:"starting_capital" json:"starting_capital" jsonschema:"title=Starting Capital,description=Initial cash of the simulated portfolio in USD,exclusiveMinimum=0,maximum=1000000000000" validate:"gt=0,lte=1e12"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Keys missing from the document keep their current value.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		EngineVersion   string     `yaml:"engine_version"`
		Anchor          string     `yaml:"anchor"`
		Target          string     `yaml:"target"`
		StartTime       *time.Time `yaml:"start_time"`
		EndTime         *time.Time `yaml:"end_time"`
		Interval        string     `yaml:"interval"`
		MaxLag          int        `yaml:"max_lag"`
		CorrThreshold   float64    `yaml:"corr_threshold"`
		ReturnThreshold float64    `yaml:"return_threshold"`
		StartingCapital float64    `yaml:"starting_capital"`
	}

	config := Config{
		EngineVersion:   c.EngineVersion,
		Anchor:          c.Anchor,
		Target:          c.Target,
		StartTime:       nil,
		EndTime:         nil,
		Interval:        c.Interval,
		MaxLag:          c.MaxLag,
		CorrThreshold:   c.CorrThreshold,
		ReturnThreshold: c.ReturnThreshold,
		StartingCapital: c.StartingCapital,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.EngineVersion = config.EngineVersion
	c.Anchor = config.Anchor
	c.Target = config.Target
	c.Interval = config.Interval
	c.MaxLag = config.MaxLag
	c.CorrThreshold = config.CorrThreshold
	c.ReturnThreshold = config.ReturnThreshold
	c.StartingCapital = config.StartingCapital

	c.StartTime = optional.None[time.Time]()
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks field rules, the analysis window and the engine version.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	for name, v := range map[string]float64{
		"corr_threshold":   c.CorrThreshold,
		"return_threshold": c.ReturnThreshold,
		"starting_capital": c.StartingCapital,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s must be a finite number, got %v", name, v)
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "start_time %s must be before end_time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	if c.EngineVersion != "" {
		if err := version.CheckConfigVersion(version.GetVersion(), c.EngineVersion); err != nil {
			return errors.Wrap(errors.ErrCodeVersionMismatch, "engine version mismatch", err)
		}
	}

	return nil
}

// Params returns the analysis parameters carried by the config.
func (c BacktestEngineV1Config) Params() types.AnalysisParams {
	return types.AnalysisParams{
		MaxLag:          c.MaxLag,
		CorrThreshold:   c.CorrThreshold,
		ReturnThreshold: c.ReturnThreshold,
		StartingCapital: c.StartingCapital,
	}
}

// SeriesRequest builds the fetch request for symbol over the configured window.
// A missing bound is left as the zero time.
func (c BacktestEngineV1Config) SeriesRequest(symbol string) types.SeriesRequest {
	return types.SeriesRequest{
		Symbol:   symbol,
		Start:    c.StartTime.TakeOr(time.Time{}),
		End:      c.EndTime.TakeOr(time.Time{}),
		Interval: c.Interval,
	}
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns the AVAX-USD against ETH-USD analysis on 4h bars over 2023 and 2024.
func DefaultConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		EngineVersion:   "",
		Anchor:          "ETH-USD",
		Target:          "AVAX-USD",
		StartTime:       optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndTime:         optional.Some(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
		Interval:        "4h",
		MaxLag:          24,
		CorrThreshold:   0.3,
		ReturnThreshold: 0.01,
		StartingCapital: 1000,
	}
}

// TestConfig returns the default config with the given symbols and window.
func TestConfig(anchor, target string, startTime, endTime time.Time) BacktestEngineV1Config {
	config := DefaultConfig()
	config.Anchor = anchor
	config.Target = target
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}
