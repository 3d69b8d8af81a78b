// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"
)

const (
	// OutcomeSkipped means no database name was configured.
	OutcomeSkipped Outcome = iota
	// OutcomeExisted means the database was already present.
	OutcomeExisted
	// OutcomeCreated means CREATE DATABASE succeeded.
	OutcomeCreated
	// OutcomeRaceTolerated means another client created the database first.
	OutcomeRaceTolerated
	// OutcomeFailureIgnored means CREATE DATABASE failed and the failure was
	// logged and ignored (non-strict mode).
	OutcomeFailureIgnored

	// duplicateDatabase is the SQLSTATE for "database already exists".
	duplicateDatabase pq.ErrorCode = "42P04"

	existsQuery = "SELECT 1 FROM pg_database WHERE datname = $1"
)

// ErrProvisionFailed is returned in strict mode when the database could not be created.
var ErrProvisionFailed = errors.New("database provisioning failed")

type (
	// Outcome reports what Ensure did.
	Outcome int

	// Execer is the subset of *sql.DB used by Database.
	Execer interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	}

	// Database ensures a named database exists on a PostgreSQL server.
	// The handle must be connected to a maintenance database, never to the
	// database being created.
	Database struct {
		db     Execer
		name   string
		strict bool
		logger *log.Logger
	}

	// Option configures a Database.
	Option func(*Database)

	// Error is returned in strict mode for a CREATE DATABASE failure other
	// than "already exists".
	Error struct {
		Database string
		Err      error
	}
)

// WithStrict makes creation failures fatal instead of logged and ignored.
func WithStrict(strict bool) Option {
	return func(d *Database) { d.strict = strict }
}

// WithLogger sets the logger used for provisioning messages.
func WithLogger(logger *log.Logger) Option {
	return func(d *Database) { d.logger = logger }
}

// New returns a provisioner for database name using db.
func New(db Execer, name string, opts ...Option) *Database {
	d := &Database{db: db, name: name}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Name returns the database being provisioned.
func (d *Database) Name() string { return d.name }

// Ensure creates the database unless it already exists. A failed existence
// check is treated as "absent" and creation is attempted anyway.
func (d *Database) Ensure(ctx context.Context) (Outcome, error) {
	if d.name == "" {
		return OutcomeSkipped, nil
	}

	exists, err := d.exists(ctx)
	if err != nil {
		d.logger.Debug("database existence check failed, attempting create", "database", d.name, "err", err)
	} else if exists {
		d.logger.Info("database exists", "database", d.name)
		return OutcomeExisted, nil
	}

	_, err = d.db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(d.name))
	switch {
	case err == nil:
		d.logger.Info("database created", "database", d.name)
		return OutcomeCreated, nil
	case IsDuplicateDatabase(err):
		d.logger.Info("database created concurrently", "database", d.name)
		return OutcomeRaceTolerated, nil
	case d.strict:
		return OutcomeFailureIgnored, &Error{Database: d.name, Err: err}
	default:
		d.logger.Warn("database create failed, continuing", "database", d.name, "err", err)
		return OutcomeFailureIgnored, nil
	}
}

func (d *Database) exists(ctx context.Context) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, existsQuery, d.name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsDuplicateDatabase reports whether err is a PostgreSQL duplicate_database error.
func IsDuplicateDatabase(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == duplicateDatabase
}

// String returns a short description of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeExisted:
		return "existed"
	case OutcomeCreated:
		return "created"
	case OutcomeRaceTolerated:
		return "race tolerated"
	case OutcomeFailureIgnored:
		return "failure ignored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("create database %q: %v", e.Database, e.Err)
}

// Unwrap returns ErrProvisionFailed and the driver error.
func (e *Error) Unwrap() []error { return []error{ErrProvisionFailed, e.Err} }
