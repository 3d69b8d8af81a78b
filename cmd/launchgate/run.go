// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/invowk/launchgate/internal/config"
)

// newRunCommand creates the `launchgate run` entrypoint command.
// Flag parsing is disabled so the invocation reaches the launcher verbatim.
func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [ARGS...]",
		Short: "Gate and start the server, or run an override command",
		Long: `Run is the container entrypoint.

With no arguments, or when the first argument is the server program
(default "gunicorn"), launchgate waits for the database, provisions it,
applies migrations and replaces itself with the server. Arguments after
the program name are appended to the server command line.

Any other arguments are executed directly with no dependency gating.

Arguments after "run" are passed through untouched. Global flags must be
placed before "run" (launchgate --log-level debug run) or set through
LAUNCHGATE_CONFIG, LAUNCHGATE_ENV_FILE, LAUNCHGATE_LOG_LEVEL and
LAUNCHGATE_LOG_FORMAT.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
				return cmd.Help()
			}
			return runLaunch(cmd.Context(), app, args)
		},
	}
}

func runLaunch(ctx context.Context, app *App, args []string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return reportFailure(app.stderr, err, true)
	}

	logger := newLogger(app.stderr, cfg.Log)
	warnConfig(logger, cfg)

	err = app.newLauncher(cfg, logger).Run(ctx, args)
	return reportFailure(app.stderr, err, cfg.Log.Format == config.LogFormatText)
}
