// SPDX-License-Identifier: MPL-2.0

package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/invowk/launchgate/internal/config"
)

func TestURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.DatabaseConfig)
		dbname string
		want   string
	}{
		{
			name:   "defaults",
			dbname: "postgres",
			want:   "postgres://postgres@db:5432/postgres?connect_timeout=5&sslmode=disable",
		},
		{
			name: "password is escaped",
			mutate: func(c *config.DatabaseConfig) {
				c.User = "app"
				c.Password = "p@ss/word"
			},
			dbname: "shop",
			want:   "postgres://app:p%40ss%2Fword@db:5432/shop?connect_timeout=5&sslmode=disable",
		},
		{
			name: "ipv6 host and sub-second timeout",
			mutate: func(c *config.DatabaseConfig) {
				c.Host = "::1"
				c.ProbeTimeout = 200 * time.Millisecond
				c.SSLMode = "require"
			},
			dbname: "postgres",
			want:   "postgres://postgres@[::1]:5432/postgres?connect_timeout=1&sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig().Database
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			if got := URL(cfg, tt.dbname); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	if err := Ping(context.Background(), db, time.Second); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	refused := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(refused)
	if err := Ping(context.Background(), db, time.Second); !errors.Is(err, refused) {
		t.Fatalf("Ping() error = %v, want %v", err, refused)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ProbeTimeout = 500 * time.Millisecond

	_, err := Open(context.Background(), cfg, "postgres")
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1/postgres") {
		t.Errorf("error %q should name the target", err.Error())
	}
}
