package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/report"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata"
)

// Output formats of the analyze command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// sourceFlags select where prices come from. Shared by analyze and serve.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Glob of local parquet files to read instead of a remote provider",
		},
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Market data provider (%s, %s, %s)", marketdata.ProviderYahoo, marketdata.ProviderPolygon, marketdata.ProviderBinance),
			Value:   string(marketdata.ProviderYahoo),
		},
		&cli.StringFlag{
			Name:    "polygon-api-key",
			Usage:   "Polygon API key",
			Sources: cli.EnvVars("POLYGON_API_KEY"),
		},
		&cli.StringFlag{
			Name:  "yahoo-base-url",
			Usage: "Override the Yahoo Finance host",
		},
	}
}

func analyzeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML analysis config applied on top of the defaults",
		},
		&cli.StringFlag{Name: "anchor", Usage: "Symbol whose lagged returns drive the signal"},
		&cli.StringFlag{Name: "target", Usage: "Symbol that is traded"},
		&cli.StringFlag{Name: "interval", Usage: "Bar interval (e.g. 1h, 4h, 1d)"},
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "Start of the window in `YYYY-MM-DD` format (or RFC3339)",
			Config: cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "End of the window in `YYYY-MM-DD` format (or RFC3339)",
			Config: cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
		},
		&cli.IntFlag{Name: "max-lag", Usage: "Largest lag in bars to scan"},
		&cli.FloatFlag{Name: "corr-threshold", Usage: "Minimum correlation for a lag to be used"},
		&cli.FloatFlag{Name: "return-threshold", Usage: "Anchor return needed to trade (0.01 = 1%)"},
		&cli.FloatFlag{Name: "capital", Usage: "Starting capital"},
		&cli.StringFlag{Name: "charts-dir", Usage: "Write lag.png and equity.png to this directory"},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, yaml, json)",
			Value:   FormatText,
		},
	}

	return &cli.Command{
		Name:   "analyze",
		Usage:  "Scan for a lagged correlation and backtest the resulting signals",
		Flags:  append(flags, sourceFlags()...),
		Action: analyzeAction,
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != FormatText && format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("unsupported format %q", format)
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	source, closeSource, err := newPriceSource(ctx, cmd, log, false)
	if err != nil {
		return err
	}

	defer closeSource()

	eng := enginev1.NewBacktestEngineV1WithLogger(log)
	if err := eng.InitializeWithConfig(cfg); err != nil {
		return err
	}

	if err := eng.SetPriceSource(source); err != nil {
		return err
	}

	result, err := eng.Run(ctx, engine.LifecycleCallbacks{})
	if err != nil {
		return err
	}

	if dir := cmd.String("charts-dir"); dir != "" {
		if err := writeCharts(dir, result); err != nil {
			return err
		}
	}

	return writeResult(cmd.Root().Writer, format, result)
}

// loadConfig reads --config over the defaults, then applies flags that were set.
func loadConfig(cmd *cli.Command) (enginev1.BacktestEngineV1Config, error) {
	cfg := enginev1.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if cmd.IsSet("anchor") {
		cfg.Anchor = cmd.String("anchor")
	}

	if cmd.IsSet("target") {
		cfg.Target = cmd.String("target")
	}

	if cmd.IsSet("interval") {
		cfg.Interval = cmd.String("interval")
	}

	if cmd.IsSet("start") {
		cfg.StartTime = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		cfg.EndTime = optional.Some(cmd.Timestamp("end"))
	}

	if cmd.IsSet("max-lag") {
		cfg.MaxLag = int(cmd.Int("max-lag"))
	}

	if cmd.IsSet("corr-threshold") {
		cfg.CorrThreshold = cmd.Float("corr-threshold")
	}

	if cmd.IsSet("return-threshold") {
		cfg.ReturnThreshold = cmd.Float("return-threshold")
	}

	if cmd.IsSet("capital") {
		cfg.StartingCapital = cmd.Float("capital")
	}

	return cfg, nil
}

// newPriceSource opens the parquet files given by --data, or a provider client otherwise.
// With preload the parquet data is read into memory once instead of queried per analysis.
func newPriceSource(ctx context.Context, cmd *cli.Command, log *logger.Logger, preload bool, opts ...marketdata.Option) (engine.PriceSource, func(), error) {
	if glob := cmd.String("data"); glob != "" {
		ds, err := openParquetSource(ctx, glob, log, preload)
		if err != nil {
			return nil, nil, err
		}

		return ds, func() { _ = ds.Close() }, nil
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterMemory,
		PolygonApiKey: cmd.String("polygon-api-key"),
		YahooBaseURL:  cmd.String("yahoo-base-url"),
	}, append([]marketdata.Option{marketdata.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}

	log.Debug("Using remote provider", zap.String("provider", cmd.String("provider")))

	return client, func() {}, nil
}

func openParquetSource(ctx context.Context, glob string, log *logger.Logger, preload bool) (datasource.DataSource, error) {
	parquet, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}

	if err := parquet.Initialize(glob); err != nil {
		_ = parquet.Close()

		return nil, err
	}

	if !preload {
		return parquet, nil
	}

	ds := datasource.NewInMemoryDataSourceFrom(parquet)
	if err := ds.Preload(ctx); err != nil {
		_ = ds.Close()

		return nil, err
	}

	symbols, err := ds.Symbols()
	if err != nil {
		_ = ds.Close()

		return nil, err
	}

	for _, symbol := range symbols {
		count, _ := ds.Count(symbol)
		log.Info("Preloaded prices", zap.String("symbol", symbol), zap.Int("points", count))
	}

	return ds, nil
}

func writeCharts(dir string, result types.AnalysisResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create charts directory: %w", err)
	}

	if len(result.LagTable) > 0 {
		png, err := report.RenderLagChart(result.LagTable)
		if err != nil {
			return err
		}

		if err := os.WriteFile(filepath.Join(dir, "lag.png"), png, 0o644); err != nil {
			return fmt.Errorf("failed to write lag chart: %w", err)
		}
	}

	if len(result.Portfolio) > 0 {
		png, err := report.RenderEquityChart(result.Target+" portfolio value", result.Portfolio)
		if err != nil {
			return err
		}

		if err := os.WriteFile(filepath.Join(dir, "equity.png"), png, 0o644); err != nil {
			return fmt.Errorf("failed to write equity chart: %w", err)
		}
	}

	return nil
}
