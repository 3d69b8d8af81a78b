// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/dependency"
	"github.com/invowk/launchgate/internal/migrate"
	"github.com/invowk/launchgate/internal/process"
	"github.com/invowk/launchgate/internal/provision"
)

const (
	StageConfig     Stage = "configuration"
	StageDispatch   Stage = "dispatch"
	StageDependency Stage = "dependency wait"
	StageProvision  Stage = "provisioning"
	StageMigrate    Stage = "migration"
	StageExec       Stage = "exec"
)

// ErrReplaceReturned is reported when a Replacer returns without error,
// which only a test double can do.
var ErrReplaceReturned = errors.New("process replacement returned")

type (
	// Stage names a pipeline step in diagnostics.
	Stage string

	// StageError tags the pipeline step that failed.
	StageError struct {
		Stage Stage
		Err   error
	}

	// Provisioner ensures the application database exists.
	Provisioner interface {
		Ensure(ctx context.Context) (provision.Outcome, error)
	}

	// Launcher composes the pipeline stages. Nil Provisioner or Migrator
	// skips that stage.
	Launcher struct {
		Config      *config.Config
		Logger      *log.Logger
		Prober      dependency.Prober
		Policy      dependency.RetryPolicy
		Clock       dependency.Clock
		Provisioner Provisioner
		Migrator    migrate.Migrator
		Replacer    process.Replacer
		// Environ supplies the environment of the final program.
		// Defaults to os.Environ.
		Environ func() []string
	}
)

// Run dispatches args and, in server mode, runs every gate before replacing
// the process with the server. On success Run does not return.
func (l *Launcher) Run(ctx context.Context, args []string) error {
	decision, err := Decide(args, l.Config.Server)
	if err != nil {
		return &StageError{Stage: StageDispatch, Err: err}
	}

	logger := l.logger()
	if decision.Mode == ModeOverride {
		logger.Info("executing override command", "argv", decision.Argv)
		return l.exec(decision.Argv)
	}

	if _, err := l.WaitForDependency(ctx); err != nil {
		return err
	}
	if err := l.Provision(ctx); err != nil {
		return err
	}
	if err := l.Migrate(ctx); err != nil {
		return err
	}

	logger.Info("starting server", "argv", decision.Argv)
	return l.exec(decision.Argv)
}

// WaitForDependency blocks until the prober succeeds or the policy budget
// is spent. It returns the number of probes made.
func (l *Launcher) WaitForDependency(ctx context.Context) (int, error) {
	logger := l.logger()

	opts := []dependency.Option{
		dependency.WithProgress(func(p dependency.Progress) {
			logger.Info("waiting for database",
				"attempt", fmt.Sprintf("%d/%d", p.Attempt, p.MaxAttempts),
				"err", p.Err)
		}),
	}
	if l.Clock != nil {
		opts = append(opts, dependency.WithClock(l.Clock))
	}

	policy := l.Policy
	if policy == (dependency.RetryPolicy{}) {
		policy = dependency.DefaultRetryPolicy()
	}

	attempts, err := dependency.Wait(ctx, l.Prober, policy, opts...)
	if err != nil {
		return attempts, &StageError{Stage: StageDependency, Err: err}
	}
	logger.Info("dependency ready", "attempts", attempts)
	return attempts, nil
}

// Provision runs the provisioning stage.
func (l *Launcher) Provision(ctx context.Context) error {
	if l.Provisioner == nil {
		return nil
	}
	outcome, err := l.Provisioner.Ensure(ctx)
	if err != nil {
		return &StageError{Stage: StageProvision, Err: err}
	}
	l.logger().Debug("provisioning finished", "outcome", outcome)
	return nil
}

// Migrate runs the migration stage.
func (l *Launcher) Migrate(ctx context.Context) error {
	if l.Migrator == nil {
		return nil
	}
	logger := l.logger()
	logger.Info("applying migrations", "engine", l.Config.Migrate.Engine)
	if err := l.Migrator.Up(ctx); err != nil {
		return &StageError{Stage: StageMigrate, Err: err}
	}
	logger.Info("migrations applied")
	return nil
}

func (l *Launcher) exec(argv []string) error {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	replacer := l.Replacer
	if replacer == nil {
		replacer = process.System()
	}

	err := replacer.Replace(argv, environ())
	if err == nil {
		err = ErrReplaceReturned
	}
	return &StageError{Stage: StageExec, Err: err}
}

func (l *Launcher) logger() *log.Logger {
	if l.Logger == nil {
		return log.New(io.Discard)
	}
	return l.Logger
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the stage failure.
func (e *StageError) Unwrap() error { return e.Err }
