// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/launch"
)

// newWaitCommand creates `launchgate wait`, the dependency wait stage alone.
func newWaitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Wait until the database accepts connections",
		Long: `Probe the database once per second, up to 30 times, and exit 0 as soon
as it accepts connections. Intended for init containers and test fixtures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return reportFailure(app.stderr, err, true)
			}
			logger := newLogger(app.stderr, cfg.Log)
			warnConfig(logger, cfg)

			if _, err := app.newLauncher(cfg, logger).WaitForDependency(cmd.Context()); err != nil {
				return reportFailure(app.stderr, err, cfg.Log.Format == config.LogFormatText)
			}
			return nil
		},
	}
}

// newCheckCommand creates `launchgate check`, a single readiness probe.
func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the database once",
		Long: `Probe the database once and exit 0 if it accepts connections, 1
otherwise. Suitable for a container HEALTHCHECK.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return reportFailure(app.stderr, err, true)
			}

			if err := app.NewProber(cfg.Database).Probe(cmd.Context()); err != nil {
				return reportFailure(app.stderr, &launch.StageError{Stage: launch.StageDependency, Err: err}, false)
			}
			target := fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.MaintenanceDB)
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("ready"), target)
			return nil
		},
	}
}

// newProvisionCommand creates `launchgate provision`: wait, then provision.
func newProvisionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Wait for the database and create it if missing",
		Long: `Wait for the database server, then create the database named by DB_NAME
if it does not exist. Set PROVISION_STRICT=true to make creation failures
fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return reportFailure(app.stderr, err, true)
			}
			logger := newLogger(app.stderr, cfg.Log)
			warnConfig(logger, cfg)

			help := cfg.Log.Format == config.LogFormatText
			l := app.newLauncher(cfg, logger)
			if _, err := l.WaitForDependency(cmd.Context()); err != nil {
				return reportFailure(app.stderr, err, help)
			}
			if err := l.Provision(cmd.Context()); err != nil {
				return reportFailure(app.stderr, err, help)
			}
			return nil
		},
	}
}
