// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/postgres"
)

// PostgresProber reports whether a PostgreSQL server accepts connections to
// its maintenance database.
type PostgresProber struct {
	timeout time.Duration
	target  string
	connect func() (*sql.DB, error)
}

// NewPostgresProber returns a prober for the server described by cfg.
func NewPostgresProber(cfg config.DatabaseConfig) *PostgresProber {
	return &PostgresProber{
		timeout: cfg.ProbeTimeout,
		target:  fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.MaintenanceDB),
		connect: func() (*sql.DB, error) {
			return postgres.Connect(cfg, cfg.MaintenanceDB)
		},
	}
}

// Probe opens a fresh connection and pings it within the probe timeout.
func (p *PostgresProber) Probe(ctx context.Context) error {
	db, err := p.connect()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Ping(ctx, db, p.timeout); err != nil {
		return fmt.Errorf("probe %s: %w", p.target, err)
	}
	return nil
}

// Target names the probed server for log output.
func (p *PostgresProber) Target() string { return p.target }
