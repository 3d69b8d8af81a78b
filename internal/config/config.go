// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/launchgate/internal/issue"
	"github.com/invowk/launchgate/pkg/types"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of the config file discovered in the working directory.
	ConfigFileName = "launchgate"
	// ConfigFileExt is the extension for config files.
	ConfigFileExt = "cue"

	// EnvConfigFile names the environment variable holding the config file path.
	EnvConfigFile = "LAUNCHGATE_CONFIG"
	// EnvEnvFiles names the environment variable holding a comma-separated env file list.
	EnvEnvFiles = "LAUNCHGATE_ENV_FILE"

	// optionalEnvFileSuffix marks an env file that may be absent.
	optionalEnvFileSuffix = "?"

	// maxConfigFileSize bounds the CUE file size accepted by the loader.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ErrEnvFileNotFound is returned when a required env file does not exist.
var ErrEnvFileNotFound = errors.New("env file not found")

// binding ties a configuration key to the environment variable that overrides it.
type binding struct {
	key string
	env string
}

// bindings lists every key that can be set from the environment.
var bindings = []binding{
	{"database.host", "DB_HOST"},
	{"database.port", "DB_PORT"},
	{"database.user", "DB_USER"},
	{"database.password", "DB_PASSWORD"},
	{"database.name", "DB_NAME"},
	{"database.sslmode", "DB_SSLMODE"},
	{"database.maintenance_db", "DB_MAINTENANCE_NAME"},
	{"database.probe_timeout", "DB_PROBE_TIMEOUT"},
	{"provision.strict", "PROVISION_STRICT"},
	{"migrate.engine", "MIGRATE_ENGINE"},
	{"migrate.command", "MIGRATE_COMMAND"},
	{"migrate.source", "MIGRATE_SOURCE"},
	{"server.program", "SERVER_PROGRAM"},
	{"server.host", "SERVER_HOST"},
	{"server.app", "SERVER_APP"},
	{"server.args", "SERVER_ARGS"},
	{"server.workers", "GUNICORN_WORKERS"},
	{"log.level", "LAUNCHGATE_LOG_LEVEL"},
	{"log.format", "LAUNCHGATE_LOG_FORMAT"},
}

// load assembles the configuration from defaults, the CUE file, env files
// and the process environment, in increasing order of precedence.
func load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	setenv := opts.Setenv
	if setenv == nil {
		setenv = os.Setenv
	}

	env := environMap(environ)

	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = splitList(env[EnvEnvFiles])
	}
	fileEnv, err := readEnvFiles(opts.WorkDir, envFiles)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load env files").
			WithResource(strings.Join(envFiles, ",")).
			WithSuggestion("Check that every --env-file path exists").
			WithSuggestion("Append '?' to a path to make the file optional").
			Wrap(err).
			BuildError()
	}
	// Env files never override the process environment. Variables they add
	// are exported so the exec'd program inherits them.
	for key, value := range fileEnv {
		if _, set := env[key]; set {
			continue
		}
		if err := setenv(key, value); err != nil {
			return nil, "", fmt.Errorf("export %s from env file: %w", key, err)
		}
		env[key] = value
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.name", defaults.Database.Name)
	v.SetDefault("database.sslmode", defaults.Database.SSLMode)
	v.SetDefault("database.maintenance_db", defaults.Database.MaintenanceDB)
	v.SetDefault("database.probe_timeout", defaults.Database.ProbeTimeout)
	v.SetDefault("provision.strict", defaults.Provision.Strict)
	v.SetDefault("migrate.engine", defaults.Migrate.Engine)
	v.SetDefault("migrate.command", defaults.Migrate.Command)
	v.SetDefault("migrate.source", defaults.Migrate.Source)
	v.SetDefault("server.program", defaults.Server.Program)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.app", defaults.Server.App)
	v.SetDefault("server.args", defaults.Server.Args)
	v.SetDefault("server.workers", "")
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	cfgPath := opts.ConfigFilePath
	if cfgPath == "" {
		cfgPath = env[EnvConfigFile]
	}
	resolvedPath := ""
	if cfgPath != "" {
		if !fileExists(cfgPath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(cfgPath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'launchgate config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", cfgPath)).
				BuildError()
		}
		resolvedPath = cfgPath
	} else if local := filepath.Join(opts.WorkDir, ConfigFileName+"."+ConfigFileExt); fileExists(local) {
		resolvedPath = local
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	// Set has the highest precedence in viper, above the merged CUE map.
	for _, b := range bindings {
		if value, ok := env[b.env]; ok {
			v.Set(b.key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("parse configuration").
			WithSuggestion("Check numeric, boolean and duration values (e.g. DB_PORT=5432, DB_PROBE_TIMEOUT=5s)").
			Wrap(err).
			BuildError()
	}

	workers, err := types.ParseWorkerCount(v.GetString("server.workers"))
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, err)
	}
	cfg.Server.Workers = workers

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Run 'launchgate config show' to inspect the resolved values").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Concrete(false) is used because every field of #Config is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d exceeds limit of %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// readEnvFiles reads the given dotenv files in order. Later files override
// earlier ones. A path ending in "?" is skipped when it does not exist.
func readEnvFiles(workDir string, paths []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, raw := range paths {
		path, optional := strings.CutSuffix(raw, optionalEnvFileSuffix)
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) && workDir != "" {
			path = filepath.Join(workDir, path)
		}
		if !fileExists(path) {
			if optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrEnvFileNotFound, path)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for key, value := range values {
			merged[key] = value
		}
	}
	return merged, nil
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
