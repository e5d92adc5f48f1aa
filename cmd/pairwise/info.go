package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	enginev1 "github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/pairwise-alpha/internal/version"
	"github.com/rxtech-lab/pairwise-alpha/pkg/marketdata"
)

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List the supported market data providers",
		Action: func(_ context.Context, cmd *cli.Command) error {
			names := marketdata.GetSupportedProviders()
			sort.Strings(names)

			w := cmd.Root().Writer

			for _, name := range names {
				info, err := marketdata.GetProviderInfo(name)
				if err != nil {
					return err
				}

				secrets, err := marketdata.GetDownloadKeychainFields(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s  %s\n", TitleStyle.Render(fmt.Sprintf("%-8s", info.Name)), info.DisplayName)
				fmt.Fprintf(w, "          %s\n", HelpStyle.Render(info.Description))

				if len(secrets) > 0 {
					fmt.Fprintf(w, "          secrets: %s\n", strings.Join(secrets, ", "))
				}
			}

			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the analysis config, or of a provider download config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Print the download config schema of this provider",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			if name := cmd.String("provider"); name != "" {
				schema, err = marketdata.GetDownloadConfigSchema(name)
			} else {
				schema, err = enginev1.NewBacktestEngineV1().GetConfigSchema()
			}

			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return err
		},
	}
}
