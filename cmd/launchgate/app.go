// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/dependency"
	"github.com/invowk/launchgate/internal/launch"
	"github.com/invowk/launchgate/internal/migrate"
	"github.com/invowk/launchgate/internal/process"
	"github.com/invowk/launchgate/internal/provision"
	"github.com/invowk/launchgate/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and builds
	// its pipeline stages through it.
	App struct {
		Config         ConfigProvider
		NewProber      ProberFactory
		NewProvisioner ProvisionerFactory
		NewMigrator    MigratorFactory
		Replacer       process.Replacer
		Clock          dependency.Clock
		stdin          io.Reader
		stdout         io.Writer
		stderr         io.Writer

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config         ConfigProvider
		NewProber      ProberFactory
		NewProvisioner ProvisionerFactory
		NewMigrator    MigratorFactory
		Replacer       process.Replacer
		Clock          dependency.Clock
		Stdin          io.Reader
		Stdout         io.Writer
		Stderr         io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ProberFactory builds the readiness probe for the configured database.
	ProberFactory func(cfg config.DatabaseConfig) dependency.Prober

	// ProvisionerFactory builds the provisioning stage.
	ProvisionerFactory func(cfg *config.Config, logger *log.Logger) launch.Provisioner

	// MigratorFactory builds the migration stage.
	MigratorFactory func(cfg *config.Config, logger *log.Logger, streams migrate.Streams) (migrate.Migrator, error)

	// unusableMigrator stands in for a migrator that could not be built.
	unusableMigrator struct {
		engine config.MigrateEngine
		err    error
	}

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		configFile string
		envFiles   []string
		logLevel   string
		logFormat  string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewProber == nil {
		deps.NewProber = func(cfg config.DatabaseConfig) dependency.Prober {
			return dependency.NewPostgresProber(cfg)
		}
	}
	if deps.NewProvisioner == nil {
		deps.NewProvisioner = func(cfg *config.Config, logger *log.Logger) launch.Provisioner {
			return provision.NewPostgres(cfg.Database, cfg.Provision.Strict, logger)
		}
	}
	if deps.NewMigrator == nil {
		deps.NewMigrator = migrate.New
	}
	if deps.Replacer == nil {
		deps.Replacer = process.System()
	}

	return &App{
		Config:         deps.Config,
		NewProber:      deps.NewProber,
		NewProvisioner: deps.NewProvisioner,
		NewMigrator:    deps.NewMigrator,
		Replacer:       deps.Replacer,
		Clock:          deps.Clock,
		stdin:          deps.Stdin,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
	}
}

// loadConfig loads configuration from the global flags and applies the
// logging flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.flags.configFile,
		EnvFiles:       a.flags.envFiles,
	})
	if err != nil {
		return nil, &launch.StageError{Stage: launch.StageConfig, Err: err}
	}

	if a.flags.logLevel != "" {
		cfg.Log.Level = config.LogLevel(a.flags.logLevel)
	}
	if a.flags.logFormat != "" {
		cfg.Log.Format = config.LogFormat(a.flags.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, &launch.StageError{Stage: launch.StageConfig, Err: err}
	}
	return cfg, nil
}

// newLauncher builds the full pipeline for cfg.
func (a *App) newLauncher(cfg *config.Config, logger *log.Logger) *launch.Launcher {
	migrator, err := a.NewMigrator(cfg, logger, migrate.Streams{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr})
	if err != nil {
		// Reported when the stage runs, so override commands are unaffected.
		migrator = unusableMigrator{engine: cfg.Migrate.Engine, err: err}
	}

	return &launch.Launcher{
		Config:      cfg,
		Logger:      logger,
		Prober:      a.NewProber(cfg.Database),
		Policy:      dependency.DefaultRetryPolicy(),
		Clock:       a.Clock,
		Provisioner: a.NewProvisioner(cfg, logger),
		Migrator:    migrator,
		Replacer:    a.Replacer,
	}
}

// Up reports the construction error.
func (m unusableMigrator) Up(context.Context) error {
	return &migrate.FailureError{Engine: m.engine, ExitCode: types.ExitFailure, Err: m.err}
}
