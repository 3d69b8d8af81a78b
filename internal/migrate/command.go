// SPDX-License-Identifier: MPL-2.0

package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"mvdan.cc/sh/v3/shell"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/pkg/types"
)

// ErrEmptyCommand is returned when the migration command line has no words.
var ErrEmptyCommand = errors.New("migration command is empty")

// Command runs an external migration command as a child process.
type Command struct {
	Argv    []string
	Env     []string
	Dir     string
	Streams Streams
}

// NewCommand splits cmdline into words using POSIX shell rules. Parameter
// expansions are resolved with env, or with the process environment when
// env is nil.
func NewCommand(cmdline string, env func(string) string) (*Command, error) {
	argv, err := shell.Fields(cmdline, env)
	if err != nil {
		return nil, fmt.Errorf("parse migration command %q: %w", cmdline, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{Argv: argv}, nil
}

// Up runs the command to completion. A non-zero exit status is returned as
// a *FailureError carrying the status.
func (c *Command) Up(ctx context.Context) error {
	if len(c.Argv) == 0 {
		return &FailureError{Engine: config.MigrateEngineCommand, ExitCode: types.ExitFailure, Err: ErrEmptyCommand}
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Stdin = c.Streams.Stdin
	cmd.Stdout = c.Streams.Stdout
	cmd.Stderr = c.Streams.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() != nil || code.IsSuccess() {
			// Killed by a signal (-1) or otherwise unrepresentable.
			return &FailureError{Engine: config.MigrateEngineCommand, ExitCode: types.ExitFailure, Err: err}
		}
		return &FailureError{Engine: config.MigrateEngineCommand, ExitCode: code}
	}

	return &FailureError{
		Engine:   config.MigrateEngineCommand,
		ExitCode: types.ExitFailure,
		Err:      fmt.Errorf("run %s: %w", c.Argv[0], err),
	}
}
