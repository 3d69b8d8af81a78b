// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	cfg := DefaultConfig()
	cfg.Migrate.Engine = "flyway"
	cfg.Log.Level = "trace"
	cfg.Server.Program = " "

	err := cfg.Validate()
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("Validate() error = %v, want *InvalidConfigError", err)
	}
	if len(invalid.FieldErrors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(invalid.FieldErrors), invalid.FieldErrors)
	}
	for _, sentinel := range []error{ErrInvalidConfig, ErrInvalidMigrateEngine, ErrInvalidLogLevel, ErrInvalidServerConfig} {
		if !errors.Is(err, sentinel) {
			t.Errorf("Validate() error should wrap %v", sentinel)
		}
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*DatabaseConfig)
	}{
		{"empty host", func(d *DatabaseConfig) { d.Host = "" }},
		{"port too low", func(d *DatabaseConfig) { d.Port = 0 }},
		{"port too high", func(d *DatabaseConfig) { d.Port = 65536 }},
		{"empty user", func(d *DatabaseConfig) { d.User = "" }},
		{"empty maintenance db", func(d *DatabaseConfig) { d.MaintenanceDB = "" }},
		{"zero timeout", func(d *DatabaseConfig) { d.ProbeTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := DefaultConfig().Database
			tt.mutate(&db)
			if err := db.Validate(); !errors.Is(err, ErrInvalidDatabaseConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidDatabaseConfig", err)
			}
		})
	}
}

func TestEnumValidate(t *testing.T) {
	t.Parallel()

	valid := []interface{ Validate() error }{
		MigrateEngineCommand, MigrateEngineSQL, MigrateEngineNone,
		LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError,
		LogFormatText, LogFormatJSON, LogFormatLogfmt,
		OutputCUE, OutputTOML, OutputJSON,
	}
	for _, v := range valid {
		if err := v.Validate(); err != nil {
			t.Errorf("%v.Validate() = %v", v, err)
		}
	}

	var invalid *InvalidValueError
	if err := MigrateEngine("").Validate(); !errors.As(err, &invalid) || invalid.Field != "migrate.engine" {
		t.Errorf("empty engine: got %v", err)
	}
}
