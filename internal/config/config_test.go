// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/invowk/launchgate/internal/issue"
	"github.com/invowk/launchgate/internal/testutil"
	"github.com/invowk/launchgate/pkg/types"
)

// testOptions returns LoadOptions isolated from the process environment.
func testOptions(t *testing.T, environ ...string) (LoadOptions, map[string]string) {
	t.Helper()
	exported := make(map[string]string)
	if environ == nil {
		environ = []string{}
	}
	return LoadOptions{
		WorkDir: t.TempDir(),
		Environ: environ,
		Setenv: func(key, value string) error {
			exported[key] = value
			return nil
		},
	}, exported
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	opts, exported := testOptions(t)
	cfg, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	if cfg.Database != want.Database {
		t.Errorf("Database = %+v, want %+v", cfg.Database, want.Database)
	}
	if cfg.Migrate != want.Migrate {
		t.Errorf("Migrate = %+v, want %+v", cfg.Migrate, want.Migrate)
	}
	if cfg.Server != want.Server {
		t.Errorf("Server = %+v, want %+v", cfg.Server, want.Server)
	}
	if cfg.Log != want.Log {
		t.Errorf("Log = %+v, want %+v", cfg.Log, want.Log)
	}
	if cfg.Provision.Strict {
		t.Error("expected provisioning to be non-strict by default")
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", cfg.Warnings)
	}
	if len(exported) != 0 {
		t.Errorf("expected nothing exported, got %v", exported)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Parallel()

	opts, _ := testOptions(t,
		"DB_HOST=pg.internal",
		"DB_PORT=6543",
		"DB_USER=app",
		"DB_PASSWORD=s3cret",
		"DB_NAME=shop",
		"DB_PROBE_TIMEOUT=250ms",
		"PROVISION_STRICT=true",
		"MIGRATE_ENGINE=sql",
		"MIGRATE_SOURCE=file:///srv/migrations",
		"SERVER_ARGS=--timeout 60",
		"GUNICORN_WORKERS=4",
		"LAUNCHGATE_LOG_LEVEL=debug",
		"LAUNCHGATE_LOG_FORMAT=json",
	)
	cfg, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "pg.internal" || cfg.Database.Port != 6543 || cfg.Database.User != "app" {
		t.Errorf("unexpected database target %+v", cfg.Database)
	}
	if cfg.Database.Password != "s3cret" || cfg.Database.Name != "shop" {
		t.Errorf("unexpected credentials/name %+v", cfg.Database)
	}
	if cfg.Database.ProbeTimeout != 250*time.Millisecond {
		t.Errorf("ProbeTimeout = %v, want 250ms", cfg.Database.ProbeTimeout)
	}
	if !cfg.Provision.Strict {
		t.Error("expected strict provisioning")
	}
	if cfg.Migrate.Engine != MigrateEngineSQL || cfg.Migrate.Source != "file:///srv/migrations" {
		t.Errorf("unexpected migrate config %+v", cfg.Migrate)
	}
	if cfg.Server.Args != "--timeout 60" {
		t.Errorf("Server.Args = %q", cfg.Server.Args)
	}
	if cfg.Server.Workers != 4 {
		t.Errorf("Server.Workers = %d, want 4", cfg.Server.Workers)
	}
	if cfg.Log.Level != LogLevelDebug || cfg.Log.Format != LogFormatJSON {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoad_WorkerCountFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want types.WorkerCount
		warn bool
	}{
		{"", 1, false},
		{"1", 1, false},
		{"8", 8, false},
		{"0", 1, true},
		{"-3", 1, true},
		{"many", 1, true},
	}

	for _, tt := range tests {
		t.Run("workers="+tt.raw, func(t *testing.T) {
			t.Parallel()

			opts, _ := testOptions(t, "GUNICORN_WORKERS="+tt.raw)
			cfg, err := Load(context.Background(), opts)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Server.Workers != tt.want {
				t.Errorf("Workers = %d, want %d", cfg.Server.Workers, tt.want)
			}
			if got := len(cfg.Warnings) > 0; got != tt.warn {
				t.Fatalf("warnings = %v, want warning %v", cfg.Warnings, tt.warn)
			}
			if tt.warn && !errors.Is(cfg.Warnings[0], types.ErrInvalidWorkerCount) {
				t.Errorf("warning %v should wrap ErrInvalidWorkerCount", cfg.Warnings[0])
			}
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	opts, exported := testOptions(t, "DB_HOST=from-env")
	cuePath := testutil.MustWriteFile(t, opts.WorkDir, "custom.cue", `
database: {
	host: "from-cue"
	port: 6000
	user: "cue-user"
	name: "cue-db"
}
server: workers: 3
`)
	testutil.MustWriteFile(t, opts.WorkDir, ".env", "DB_HOST=from-dotenv\nDB_USER=dotenv-user\n")
	opts.ConfigFilePath = cuePath
	opts.EnvFiles = []string{".env"}

	cfg, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "from-env" {
		t.Errorf("Host = %q, want process env to win", cfg.Database.Host)
	}
	if cfg.Database.User != "dotenv-user" {
		t.Errorf("User = %q, want dotenv to override the CUE file", cfg.Database.User)
	}
	if cfg.Database.Port != 6000 || cfg.Database.Name != "cue-db" {
		t.Errorf("expected CUE values to override defaults, got %+v", cfg.Database)
	}
	if cfg.Server.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from CUE", cfg.Server.Workers)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want default", cfg.Database.SSLMode)
	}

	if _, ok := exported["DB_HOST"]; ok {
		t.Error("env file must not override an already-set variable")
	}
	if exported["DB_USER"] != "dotenv-user" {
		t.Errorf("expected DB_USER to be exported, got %v", exported)
	}
}

func TestLoad_EnvFiles(t *testing.T) {
	t.Parallel()

	t.Run("later files override earlier ones", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions(t)
		testutil.MustWriteFile(t, opts.WorkDir, "base.env", "DB_NAME=base\nDB_USER=base\n")
		testutil.MustWriteFile(t, opts.WorkDir, "local.env", "DB_NAME=local\n")
		opts.EnvFiles = []string{"base.env", "local.env"}

		cfg, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Database.Name != "local" || cfg.Database.User != "base" {
			t.Errorf("unexpected database %+v", cfg.Database)
		}
	})

	t.Run("optional file may be missing", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions(t)
		opts.EnvFiles = []string{"missing.env?"}
		if _, err := Load(context.Background(), opts); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	})

	t.Run("required file must exist", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions(t)
		opts.EnvFiles = []string{"missing.env"}
		_, err := Load(context.Background(), opts)
		if !errors.Is(err, ErrEnvFileNotFound) {
			t.Fatalf("Load() error = %v, want ErrEnvFileNotFound", err)
		}
	})

	t.Run("list from LAUNCHGATE_ENV_FILE", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := testutil.MustWriteFile(t, dir, "a.env", "DB_NAME=a\n")
		second := testutil.MustWriteFile(t, dir, "b.env", "SERVER_APP=app.wsgi\n")
		opts, _ := testOptions(t, EnvEnvFiles+"="+first+", "+second)

		cfg, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Database.Name != "a" || cfg.Server.App != "app.wsgi" {
			t.Errorf("unexpected config %+v %+v", cfg.Database, cfg.Server)
		}
	})
}

func TestLoad_ConfigFileDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("local file in work dir", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions(t)
		testutil.MustWriteFile(t, opts.WorkDir, "launchgate.cue", `migrate: engine: "none"`)

		cfg, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Migrate.Engine != MigrateEngineNone {
			t.Errorf("Engine = %q, want none", cfg.Migrate.Engine)
		}
	})

	t.Run("path from LAUNCHGATE_CONFIG", func(t *testing.T) {
		t.Parallel()

		path := testutil.MustWriteFile(t, t.TempDir(), "x.cue", `server: program: "uvicorn"`)
		opts, _ := testOptions(t, EnvConfigFile+"="+path)

		cfg, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Program != "uvicorn" {
			t.Errorf("Program = %q, want uvicorn", cfg.Server.Program)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions(t)
		opts.ConfigFilePath = filepath.Join(opts.WorkDir, "nope.cue")

		_, err := Load(context.Background(), opts)
		var actionable *issue.ActionableError
		if !errors.As(err, &actionable) {
			t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
		}
		if actionable.Resource != opts.ConfigFilePath {
			t.Errorf("Resource = %q, want %q", actionable.Resource, opts.ConfigFilePath)
		}
	})
}

func TestLoad_SchemaRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown engine", `migrate: engine: "flyway"`, "migrate.engine"},
		{"unknown field", `database: hostname: "db"`, "hostname"},
		{"port out of range", `database: port: 70000`, "database.port"},
		{"zero workers", `server: workers: 0`, "server.workers"},
		{"bad duration", `database: probe_timeout: "soon"`, "probe_timeout"},
		{"syntax error", `database: {`, "launchgate.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, _ := testOptions(t)
			testutil.MustWriteFile(t, opts.WorkDir, "launchgate.cue", tt.content)

			_, err := Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_InvalidEnvironmentValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  string
		want error
	}{
		{"engine", "MIGRATE_ENGINE=flyway", ErrInvalidMigrateEngine},
		{"log level", "LAUNCHGATE_LOG_LEVEL=loud", ErrInvalidLogLevel},
		{"log format", "LAUNCHGATE_LOG_FORMAT=xml", ErrInvalidLogFormat},
		{"empty host", "DB_HOST=", ErrInvalidDatabaseConfig},
		{"port", "DB_PORT=0", ErrInvalidDatabaseConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, _ := testOptions(t, tt.env)
			_, err := Load(context.Background(), opts)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts, _ := testOptions(t)
	if _, err := Load(ctx, opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}
