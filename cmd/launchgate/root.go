// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/launchgate/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the launchgate command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "launchgate",
		Short: "Dependency-gated service launcher",
		Long: TitleStyle.Render("launchgate") + SubtitleStyle.Render(" - dependency-gated service launcher") + `

launchgate is a container entrypoint. Before starting the default server it
waits for PostgreSQL, creates the application database if it is missing and
applies migrations. Any other command is executed as-is.

` + SubtitleStyle.Render("Examples:") + `
  launchgate run                      Gate and start the default server
  launchgate run gunicorn --reload    Same, with extra server arguments
  launchgate run python manage.py shell
                                      Run a one-off command, no gating
  launchgate check                    Single readiness probe (health check)
  launchgate config show              Show the resolved configuration`,
		SilenceUsage: true,
		// Root flags are parsed before the subcommand is resolved, so
		// `launchgate --log-level debug run` still reaches run with no args.
		TraverseChildren: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.configFile, "config", "", "config file (default is ./launchgate.cue, env "+config.EnvConfigFile+")")
	flags.StringArrayVar(&app.flags.envFiles, "env-file", nil, "dotenv file to load, repeatable; suffix '?' marks it optional (env "+config.EnvEnvFiles+")")
	flags.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (env LAUNCHGATE_LOG_LEVEL)")
	flags.StringVar(&app.flags.logFormat, "log-format", "", "log format: text, json, logfmt (env LAUNCHGATE_LOG_FORMAT)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newWaitCommand(app))
	rootCmd.AddCommand(newCheckCommand(app))
	rootCmd.AddCommand(newProvisionCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the launchgate command line and exits the process on failure.
// This is called by main.main().
func Execute() {
	os.Exit(int(Run(context.Background(), NewApp(Dependencies{}), os.Args[1:])))
}

// Run executes the command tree with args and returns the exit code.
// A successful `run` never returns: the process is replaced.
func Run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code.Normalize())
	}
	return 1
}

// errorHandler prints errors that were not already reported by a command.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
