package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata/provider"
)

// downloadConfig is implemented by every provider download configuration.
type downloadConfig interface {
	ToDownloadParams() (marketdata.DownloadParams, error)
	ToClientConfig(dataPath string) marketdata.ClientConfig
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars to a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "JSON download config for the provider (see `pairwise schema --provider`)",
			},
			&cli.StringFlag{
				Name:    "ticker",
				Aliases: []string{"t"},
				Usage:   "Symbol to download",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
				Config:  cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format (or RFC3339). Defaults to now.",
				Config:  cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval (e.g. 1h, 4h, 1d)",
				Value:   string(marketdata.TimespanFourHours),
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
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	clientConfig, params, err := downloadRequest(cmd)
	if err != nil {
		return err
	}

	opts := []marketdata.Option{marketdata.WithLogger(log)}
	if isTerminal(os.Stderr) {
		opts = append(opts, marketdata.WithProgress(provider.TerminalProgress(os.Stderr)))
	}

	client, err := marketdata.NewClient(clientConfig, opts...)
	if err != nil {
		return err
	}

	log.Info("Starting download",
		zap.String("ticker", params.Ticker),
		zap.String("provider", string(clientConfig.ProviderType)),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, path)

	return err
}

// downloadRequest builds the client config and parameters from --config or the flags.
func downloadRequest(cmd *cli.Command) (marketdata.ClientConfig, marketdata.DownloadParams, error) {
	if path := cmd.String("config"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return marketdata.ClientConfig{}, marketdata.DownloadParams{}, fmt.Errorf("failed to read config: %w", err)
		}

		parsed, err := marketdata.ParseDownloadConfig(cmd.String("provider"), string(raw))
		if err != nil {
			return marketdata.ClientConfig{}, marketdata.DownloadParams{}, err
		}

		config, ok := parsed.(downloadConfig)
		if !ok {
			return marketdata.ClientConfig{}, marketdata.DownloadParams{}, fmt.Errorf("unexpected config type %T", parsed)
		}

		params, err := config.ToDownloadParams()
		if err != nil {
			return marketdata.ClientConfig{}, marketdata.DownloadParams{}, err
		}

		return config.ToClientConfig(cmd.String("out")), params, nil
	}

	if cmd.String("ticker") == "" || !cmd.IsSet("start") {
		return marketdata.ClientConfig{}, marketdata.DownloadParams{}, fmt.Errorf("--ticker and --start are required without --config")
	}

	timespan, err := marketdata.ParseTimespan(cmd.String("interval"))
	if err != nil {
		return marketdata.ClientConfig{}, marketdata.DownloadParams{}, err
	}

	end := time.Now().UTC()
	if cmd.IsSet("end") {
		end = cmd.Timestamp("end")
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      cmd.String("out"),
		PolygonApiKey: cmd.String("polygon-api-key"),
		YahooBaseURL:  cmd.String("yahoo-base-url"),
	}

	params := marketdata.DownloadParams{
		Ticker:     cmd.String("ticker"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    end,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}

	return clientConfig, params, nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
