// SPDX-License-Identifier: MPL-2.0

package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/postgres"
	"github.com/invowk/launchgate/pkg/types"
)

// ErrMigrationFailed is the sentinel error for every migration failure.
var ErrMigrationFailed = errors.New("migration failed")

type (
	// Migrator applies pending schema migrations.
	Migrator interface {
		Up(ctx context.Context) error
	}

	// FailureError describes a failed migration run. ExitCode is the exit
	// status of the migration command, or ExitFailure when no process ran.
	FailureError struct {
		Engine   config.MigrateEngine
		ExitCode types.ExitCode
		Err      error
	}

	// Noop is the migrator for the "none" engine.
	Noop struct{}

	// Streams are the standard streams handed to a migration command.
	Streams struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// Up does nothing.
func (Noop) Up(context.Context) error { return nil }

// New returns the migrator selected by cfg.Migrate.Engine.
func New(cfg *config.Config, logger *log.Logger, streams Streams) (Migrator, error) {
	switch cfg.Migrate.Engine {
	case config.MigrateEngineCommand:
		m, err := NewCommand(cfg.Migrate.Command, nil)
		if err != nil {
			return nil, err
		}
		m.Streams = streams
		return m, nil
	case config.MigrateEngineSQL:
		return &SQL{
			SourceURL:   cfg.Migrate.Source,
			DatabaseURL: postgres.URL(cfg.Database, sqlTargetDatabase(cfg.Database)),
			Logger:      logger,
		}, nil
	case config.MigrateEngineNone:
		return Noop{}, nil
	default:
		return nil, cfg.Migrate.Engine.Validate()
	}
}

// sqlTargetDatabase is the database SQL migrations are applied to: the
// application database, or the maintenance database when none is named.
func sqlTargetDatabase(db config.DatabaseConfig) string {
	if db.Name != "" {
		return db.Name
	}
	return db.MaintenanceDB
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s migration exited with status %d", e.Engine, e.ExitCode)
	}
	return fmt.Sprintf("%s migration: %v", e.Engine, e.Err)
}

// Unwrap returns ErrMigrationFailed and the underlying cause.
func (e *FailureError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMigrationFailed}
	}
	return []error{ErrMigrationFailed, e.Err}
}
