// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/postgres"
)

// Postgres connects to the maintenance database for the duration of a
// single Ensure call.
type Postgres struct {
	cfg    config.DatabaseConfig
	strict bool
	logger *log.Logger
}

// NewPostgres returns a provisioner for cfg.Name on the server described by cfg.
func NewPostgres(cfg config.DatabaseConfig, strict bool, logger *log.Logger) *Postgres {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Postgres{cfg: cfg, strict: strict, logger: logger}
}

// Ensure opens a maintenance connection and ensures cfg.Name exists. A
// connection failure is handled like a creation failure.
func (p *Postgres) Ensure(ctx context.Context) (Outcome, error) {
	if p.cfg.Name == "" {
		p.logger.Debug("no database name configured, skipping provisioning")
		return OutcomeSkipped, nil
	}

	db, err := postgres.Open(ctx, p.cfg, p.cfg.MaintenanceDB)
	if err != nil {
		if p.strict {
			return OutcomeFailureIgnored, &Error{Database: p.cfg.Name, Err: err}
		}
		p.logger.Warn("provisioning connection failed, continuing", "database", p.cfg.Name, "err", err)
		return OutcomeFailureIgnored, nil
	}
	defer func() { _ = db.Close() }()

	return New(db, p.cfg.Name, WithStrict(p.strict), WithLogger(p.logger)).Ensure(ctx)
}
