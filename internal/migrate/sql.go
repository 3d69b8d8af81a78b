// SPDX-License-Identifier: MPL-2.0

package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	gomigrate "github.com/golang-migrate/migrate/v4"

	// Database and source drivers referenced by URL scheme.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/pkg/types"
)

// SQL applies versioned SQL migration files with golang-migrate.
type SQL struct {
	// SourceURL locates the migration files, e.g. file://migrations.
	SourceURL string
	// DatabaseURL is a postgres:// URL of the database to migrate.
	DatabaseURL string
	Logger      *log.Logger
}

// migrateLogger adapts a charmbracelet logger to golang-migrate's Logger.
type migrateLogger struct {
	l *log.Logger
}

// Up applies all pending migrations. No pending migration is success.
// Cancelling ctx stops after the migration currently running.
func (s *SQL) Up(ctx context.Context) error {
	m, err := gomigrate.New(s.SourceURL, s.DatabaseURL)
	if err != nil {
		return s.fail(fmt.Errorf("open migrations %s: %w", s.SourceURL, err))
	}
	defer func() { _, _ = m.Close() }()

	if s.Logger != nil {
		m.Log = migrateLogger{l: s.Logger}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = m.Up()
	if err == nil || errors.Is(err, gomigrate.ErrNoChange) {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		return nil
	}
	return s.fail(err)
}

func (s *SQL) fail(err error) error {
	return &FailureError{Engine: config.MigrateEngineSQL, ExitCode: types.ExitFailure, Err: err}
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.l.Debugf("migrate: "+format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.l.GetLevel() <= log.DebugLevel
}
