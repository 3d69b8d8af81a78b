// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific CUE file when set.
	// Falls back to LAUNCHGATE_CONFIG, then to ./launchgate.cue if present.
	ConfigFilePath string
	// EnvFiles lists dotenv files to layer under the process environment.
	// Falls back to the comma-separated LAUNCHGATE_ENV_FILE.
	EnvFiles []string
	// WorkDir resolves relative env file paths and the local config file.
	WorkDir string
	// Environ replaces os.Environ() when non-nil.
	Environ []string
	// Setenv replaces os.Setenv when non-nil.
	Setenv func(key, value string) error
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested sources.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := load(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is a convenience wrapper around NewProvider().Load.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return NewProvider().Load(ctx, opts)
}
