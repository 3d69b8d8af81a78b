// SPDX-License-Identifier: MPL-2.0

package process

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrExecFailed is the sentinel error wrapped by ExecError.
	ErrExecFailed = errors.New("exec failed")
	// ErrEmptyArgv is returned when there is no program to execute.
	ErrEmptyArgv = errors.New("empty command")
)

type (
	// Replacer replaces the running process with argv.
	// Implementations return only on failure.
	Replacer interface {
		Replace(argv, env []string) error
	}

	// ReplacerFunc adapts a function to the Replacer interface.
	ReplacerFunc func(argv, env []string) error

	// ExecError is returned when the program could not be resolved or executed.
	ExecError struct {
		Program string
		Err     error
	}

	systemReplacer struct{}
)

// System returns the Replacer backed by the execve system call.
func System() Replacer { return systemReplacer{} }

// Replace calls f(argv, env).
func (f ReplacerFunc) Replace(argv, env []string) error { return f(argv, env) }

func (systemReplacer) Replace(argv, env []string) error { return Replace(argv, env) }

// Replace resolves argv[0] against PATH and replaces the current process
// with it. It does not return on success.
func Replace(argv, env []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return &ExecError{Err: ErrEmptyArgv}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return &ExecError{Program: argv[0], Err: err}
	}

	if err := execve(path, argv, env); err != nil {
		return &ExecError{Program: argv[0], Err: fmt.Errorf("exec %s: %w", path, err)}
	}
	return nil
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("exec: %v", e.Err)
	}
	return fmt.Sprintf("exec %q: %v", e.Program, e.Err)
}

// Unwrap returns ErrExecFailed and the underlying cause.
func (e *ExecError) Unwrap() []error { return []error{ErrExecFailed, e.Err} }
