// SPDX-License-Identifier: MPL-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// OutputCUE renders the configuration as a CUE file accepted by the loader.
	OutputCUE OutputFormat = "cue"
	// OutputTOML renders the configuration as TOML.
	OutputTOML OutputFormat = "toml"
	// OutputJSON renders the configuration as indented JSON.
	OutputJSON OutputFormat = "json"

	redacted = "********"
)

// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
var ErrInvalidOutputFormat = errors.New("invalid output format")

// OutputFormat selects the encoding used by Render.
type OutputFormat string

// Validate returns an error if the format is not cue, toml or json.
func (f OutputFormat) Validate() error {
	switch f {
	case OutputCUE, OutputTOML, OutputJSON:
		return nil
	default:
		return &InvalidValueError{Field: "format", Value: string(f), Sentinel: ErrInvalidOutputFormat}
	}
}

// Redacted returns a copy of cfg with secrets masked.
func (c Config) Redacted() Config {
	out := c
	if out.Database.Password != "" {
		out.Database.Password = redacted
	}
	out.Warnings = nil
	return out
}

// Snapshot returns the configuration as a nested map keyed like the CUE
// schema. Durations are rendered as strings.
func Snapshot(cfg *Config) map[string]any {
	return map[string]any{
		"database": map[string]any{
			"host":           cfg.Database.Host,
			"port":           cfg.Database.Port,
			"user":           cfg.Database.User,
			"password":       cfg.Database.Password,
			"name":           cfg.Database.Name,
			"sslmode":        cfg.Database.SSLMode,
			"maintenance_db": cfg.Database.MaintenanceDB,
			"probe_timeout":  cfg.Database.ProbeTimeout.String(),
		},
		"provision": map[string]any{
			"strict": cfg.Provision.Strict,
		},
		"migrate": map[string]any{
			"engine":  cfg.Migrate.Engine.String(),
			"command": cfg.Migrate.Command,
			"source":  cfg.Migrate.Source,
		},
		"server": map[string]any{
			"program": cfg.Server.Program,
			"host":    cfg.Server.Host,
			"app":     cfg.Server.App,
			"args":    cfg.Server.Args,
			"workers": int(cfg.Server.Workers),
		},
		"log": map[string]any{
			"level":  cfg.Log.Level.String(),
			"format": cfg.Log.Format.String(),
		},
	}
}

// Render encodes the redacted configuration in the requested format.
func Render(cfg *Config, format OutputFormat) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}
	safe := cfg.Redacted()

	switch format {
	case OutputTOML:
		data, err := toml.Marshal(Snapshot(&safe))
		if err != nil {
			return "", fmt.Errorf("encode toml: %w", err)
		}
		return string(data), nil
	case OutputJSON:
		data, err := json.MarshalIndent(Snapshot(&safe), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return GenerateCUE(&safe), nil
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// launchgate configuration file\n\n")

	sb.WriteString("database: {\n")
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.Database.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.Database.Port)
	fmt.Fprintf(&sb, "\tuser: %q\n", cfg.Database.User)
	if cfg.Database.Password != "" {
		fmt.Fprintf(&sb, "\tpassword: %q\n", cfg.Database.Password)
	}
	if cfg.Database.Name != "" {
		fmt.Fprintf(&sb, "\tname: %q\n", cfg.Database.Name)
	}
	fmt.Fprintf(&sb, "\tsslmode: %q\n", cfg.Database.SSLMode)
	fmt.Fprintf(&sb, "\tmaintenance_db: %q\n", cfg.Database.MaintenanceDB)
	fmt.Fprintf(&sb, "\tprobe_timeout: %q\n", cfg.Database.ProbeTimeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\nprovision: {\n")
	fmt.Fprintf(&sb, "\tstrict: %v\n", cfg.Provision.Strict)
	sb.WriteString("}\n")

	sb.WriteString("\nmigrate: {\n")
	fmt.Fprintf(&sb, "\tengine: %q\n", cfg.Migrate.Engine)
	fmt.Fprintf(&sb, "\tcommand: %q\n", cfg.Migrate.Command)
	fmt.Fprintf(&sb, "\tsource: %q\n", cfg.Migrate.Source)
	sb.WriteString("}\n")

	sb.WriteString("\nserver: {\n")
	fmt.Fprintf(&sb, "\tprogram: %q\n", cfg.Server.Program)
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.Server.Host)
	fmt.Fprintf(&sb, "\tapp: %q\n", cfg.Server.App)
	if cfg.Server.Args != "" {
		fmt.Fprintf(&sb, "\targs: %q\n", cfg.Server.Args)
	}
	fmt.Fprintf(&sb, "\tworkers: %d\n", int(cfg.Server.Workers))
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Log.Format)
	sb.WriteString("}\n")

	return sb.String()
}
