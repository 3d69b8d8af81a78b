// SPDX-License-Identifier: MPL-2.0

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/invowk/launchgate/internal/config"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// URL returns a postgres:// connection URL for database dbname on the
// server described by cfg. It is accepted both by lib/pq and by the
// golang-migrate postgres driver.
func URL(cfg config.DatabaseConfig, dbname string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + dbname,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.ProbeTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(connectTimeoutSeconds(cfg.ProbeTimeout)))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// connectTimeoutSeconds rounds d up to whole seconds, as lib/pq only accepts
// integral connect_timeout values.
func connectTimeoutSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

// Connect returns a lazily connected handle to dbname. No connection is
// attempted until the handle is used.
func Connect(cfg config.DatabaseConfig, dbname string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, URL(cfg, dbname))
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", DriverName, dbname, err)
	}
	// The launcher issues one statement at a time.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Ping verifies db accepts connections within timeout.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// Open connects to dbname and verifies the connection with Ping bounded by
// cfg.ProbeTimeout. The handle is closed when the ping fails.
func Open(ctx context.Context, cfg config.DatabaseConfig, dbname string) (*sql.DB, error) {
	db, err := Connect(cfg, dbname)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, db, cfg.ProbeTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s/%s: %w", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), dbname, err)
	}
	return db, nil
}
