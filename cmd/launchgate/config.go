// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/launchgate/internal/config"
)

// newConfigCommand creates the `launchgate config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect launchgate configuration",
		Long: `Inspect launchgate configuration.

Values are resolved from, highest precedence first: the environment, dotenv
files (--env-file), the CUE config file (--config or ./launchgate.cue), and
built-in defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long:  `Show the resolved configuration with the database password redacted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, config.OutputFormat(format))
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", string(config.OutputCUE), "output format: cue, toml, json")
	cfgCmd.AddCommand(showCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, format config.OutputFormat) error {
	if err := format.Validate(); err != nil {
		return err
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return reportFailure(app.stderr, err, true)
	}

	out, err := config.Render(cfg, format)
	if err != nil {
		return err
	}
	fmt.Fprint(app.stdout, out)

	if len(cfg.Warnings) > 0 {
		logger := newLogger(app.stderr, cfg.Log)
		warnConfig(logger, cfg)
	}
	return nil
}
