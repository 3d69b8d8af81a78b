// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invowk/launchgate/pkg/types"
)

const (
	// MigrateEngineCommand runs an external migration command (the framework's migrate).
	MigrateEngineCommand MigrateEngine = "command"
	// MigrateEngineSQL applies versioned SQL files with golang-migrate.
	MigrateEngineSQL MigrateEngine = "sql"
	// MigrateEngineNone skips the migration stage.
	MigrateEngineNone MigrateEngine = "none"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"

	// ServerPort is the fixed port the default server binds inside the container.
	ServerPort types.ListenPort = 8000
)

var (
	// ErrInvalidMigrateEngine is returned when a MigrateEngine value is not recognized.
	ErrInvalidMigrateEngine = errors.New("invalid migrate engine")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidDatabaseConfig is the sentinel error wrapped by InvalidDatabaseConfigError.
	ErrInvalidDatabaseConfig = errors.New("invalid database config")
	// ErrInvalidServerConfig is the sentinel error wrapped by InvalidServerConfigError.
	ErrInvalidServerConfig = errors.New("invalid server config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// MigrateEngine selects how the migration stage is carried out.
	MigrateEngine string

	// LogLevel is the minimum level emitted by the launcher logger.
	LogLevel string

	// LogFormat selects the launcher log encoding.
	LogFormat string

	// InvalidValueError is returned when an enumerated value is not recognized.
	// Sentinel is one of ErrInvalidMigrateEngine, ErrInvalidLogLevel, ErrInvalidLogFormat.
	InvalidValueError struct {
		Field    string
		Value    string
		Sentinel error
	}

	// InvalidDatabaseConfigError describes an unusable database section.
	InvalidDatabaseConfigError struct {
		Reason string
	}

	// InvalidServerConfigError describes an unusable server section.
	InvalidServerConfigError struct {
		Reason string
	}

	// InvalidConfigError collects every field error found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the launcher configuration.
	Config struct {
		// Database identifies the dependency target for probing and provisioning.
		Database DatabaseConfig `json:"database" mapstructure:"database"`
		// Provision controls the idempotent create-database stage.
		Provision ProvisionConfig `json:"provision" mapstructure:"provision"`
		// Migrate selects and configures the migration engine.
		Migrate MigrateConfig `json:"migrate" mapstructure:"migrate"`
		// Server describes the default long-running server process.
		Server ServerConfig `json:"server" mapstructure:"server"`
		// Log configures launcher logging.
		Log LogConfig `json:"log" mapstructure:"log"`

		// Warnings holds non-fatal problems found while loading (e.g. an
		// unusable worker count that fell back to the default).
		Warnings []error `json:"-" mapstructure:"-"`
	}

	// DatabaseConfig describes the PostgreSQL server the launcher waits on.
	DatabaseConfig struct {
		Host     string `json:"host" mapstructure:"host"`
		Port     int    `json:"port" mapstructure:"port"`
		User     string `json:"user" mapstructure:"user"`
		Password string `json:"password" mapstructure:"password"`
		// Name is the application database to provision. Empty skips provisioning.
		Name    string `json:"name" mapstructure:"name"`
		SSLMode string `json:"sslmode" mapstructure:"sslmode"`
		// MaintenanceDB is the database used for probing and CREATE DATABASE.
		MaintenanceDB string `json:"maintenance_db" mapstructure:"maintenance_db"`
		// ProbeTimeout bounds a single readiness probe.
		ProbeTimeout time.Duration `json:"probe_timeout" mapstructure:"probe_timeout"`
	}

	// ProvisionConfig controls provisioning failure handling.
	ProvisionConfig struct {
		// Strict makes CREATE DATABASE failures other than "already exists"
		// fatal. When false (default), such failures are logged and ignored.
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	// MigrateConfig selects the migration engine.
	MigrateConfig struct {
		Engine MigrateEngine `json:"engine" mapstructure:"engine"`
		// Command is the shell-style command line run by the command engine.
		Command string `json:"command" mapstructure:"command"`
		// Source is the golang-migrate source URL used by the sql engine.
		Source string `json:"source" mapstructure:"source"`
	}

	// ServerConfig describes the default server command line.
	ServerConfig struct {
		// Program is the server executable and also the sentinel token that
		// selects the gated pipeline when passed as the first argument.
		Program string `json:"program" mapstructure:"program"`
		Host    string `json:"host" mapstructure:"host"`
		App     string `json:"app" mapstructure:"app"`
		// Args holds extra shell-style arguments inserted before App.
		Args    string            `json:"args" mapstructure:"args"`
		Workers types.WorkerCount `json:"workers" mapstructure:"-"`
	}

	// LogConfig configures the launcher logger.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:          "db",
			Port:          5432,
			User:          "postgres",
			SSLMode:       "disable",
			MaintenanceDB: "postgres",
			ProbeTimeout:  5 * time.Second,
		},
		Provision: ProvisionConfig{Strict: false},
		Migrate: MigrateConfig{
			Engine:  MigrateEngineCommand,
			Command: "python manage.py migrate --noinput",
			Source:  "file://migrations",
		},
		Server: ServerConfig{
			Program: "gunicorn",
			Host:    "0.0.0.0",
			App:     "config.wsgi:application",
			Workers: types.DefaultWorkerCount,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Validate returns an *InvalidConfigError listing every invalid field.
func (c Config) Validate() error {
	var errs []error
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Migrate.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Log.Format.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Validate checks the database section.
func (d DatabaseConfig) Validate() error {
	switch {
	case strings.TrimSpace(d.Host) == "":
		return &InvalidDatabaseConfigError{Reason: "host must not be empty"}
	case d.Port < 1 || d.Port > 65535:
		return &InvalidDatabaseConfigError{Reason: fmt.Sprintf("port %d out of range 1-65535", d.Port)}
	case strings.TrimSpace(d.User) == "":
		return &InvalidDatabaseConfigError{Reason: "user must not be empty"}
	case strings.TrimSpace(d.MaintenanceDB) == "":
		return &InvalidDatabaseConfigError{Reason: "maintenance database must not be empty"}
	case d.ProbeTimeout <= 0:
		return &InvalidDatabaseConfigError{Reason: "probe timeout must be positive"}
	}
	return nil
}

// Validate checks the server section.
func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Program) == "" {
		return &InvalidServerConfigError{Reason: "program must not be empty"}
	}
	if strings.TrimSpace(s.Host) == "" {
		return &InvalidServerConfigError{Reason: "host must not be empty"}
	}
	if err := s.Workers.Validate(); err != nil {
		return &InvalidServerConfigError{Reason: err.Error()}
	}
	return nil
}

// String returns the string representation of the MigrateEngine.
func (e MigrateEngine) String() string { return string(e) }

// Validate returns an error if the engine is not one of command, sql or none.
func (e MigrateEngine) Validate() error {
	switch e {
	case MigrateEngineCommand, MigrateEngineSQL, MigrateEngineNone:
		return nil
	default:
		return &InvalidValueError{Field: "migrate.engine", Value: string(e), Sentinel: ErrInvalidMigrateEngine}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns an error if the level is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidValueError{Field: "log.level", Value: string(l), Sentinel: ErrInvalidLogLevel}
	}
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// Validate returns an error if the format is not recognized.
func (f LogFormat) Validate() error {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return nil
	default:
		return &InvalidValueError{Field: "log.format", Value: string(f), Sentinel: ErrInvalidLogFormat}
	}
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: unrecognized value %q", e.Field, e.Value)
}

// Unwrap returns the field-specific sentinel for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.Sentinel }

// Error implements the error interface.
func (e *InvalidDatabaseConfigError) Error() string {
	return "database: " + e.Reason
}

// Unwrap returns ErrInvalidDatabaseConfig for errors.Is() compatibility.
func (e *InvalidDatabaseConfigError) Unwrap() error { return ErrInvalidDatabaseConfig }

// Error implements the error interface.
func (e *InvalidServerConfigError) Error() string {
	return "server: " + e.Reason
}

// Unwrap returns ErrInvalidServerConfig for errors.Is() compatibility.
func (e *InvalidServerConfigError) Unwrap() error { return ErrInvalidServerConfig }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fieldErr := range e.FieldErrors {
		msgs = append(msgs, fieldErr.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
