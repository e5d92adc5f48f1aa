package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/pairwise-alpha/internal/logger"
	"github.com/rxtech-lab/pairwise-alpha/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pairwise",
		Usage:   "Find lagged return correlations between two assets and backtest them",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			downloadCommand(),
			serveCommand(),
			providersCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}
}

// newLogger builds the process logger from the root --log-level flag.
func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cmd.Root().String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}
