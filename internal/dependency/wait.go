// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts is the number of failed probes tolerated before giving up.
	DefaultMaxAttempts = 30
	// DefaultInterval is the fixed delay between probes.
	DefaultInterval = time.Second
)

var (
	// ErrDependencyUnavailable is returned when the retry budget is exhausted.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrInvalidRetryPolicy is returned for a policy that cannot be executed.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")
)

type (
	// Prober performs a single readiness check. Each call owns its own timeout.
	Prober interface {
		Probe(ctx context.Context) error
	}

	// ProberFunc adapts a function to the Prober interface.
	ProberFunc func(ctx context.Context) error

	// Clock provides the timer used between attempts.
	Clock interface {
		After(d time.Duration) <-chan time.Time
	}

	// RetryPolicy bounds the wait loop.
	RetryPolicy struct {
		MaxAttempts int
		Interval    time.Duration
	}

	// Progress describes a failed attempt.
	Progress struct {
		Attempt     int
		MaxAttempts int
		Err         error
	}

	// UnavailableError is returned when every attempt failed.
	UnavailableError struct {
		Attempts int
		LastErr  error
	}

	// Option configures Wait.
	Option func(*waitOptions)

	waitOptions struct {
		clock      Clock
		onProgress func(Progress)
	}

	realClock struct{}
)

// DefaultRetryPolicy returns the fixed 30 attempts / 1s policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Interval: DefaultInterval}
}

// Validate rejects policies with no attempts or a negative interval.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d must be >= 1", ErrInvalidRetryPolicy, p.MaxAttempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval %s must not be negative", ErrInvalidRetryPolicy, p.Interval)
	}
	return nil
}

// Probe calls f(ctx).
func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// WithClock replaces the wall clock used between attempts.
func WithClock(c Clock) Option {
	return func(o *waitOptions) { o.clock = c }
}

// WithProgress registers a callback invoked after every failed attempt,
// before the interval sleep.
func WithProgress(fn func(Progress)) Option {
	return func(o *waitOptions) { o.onProgress = fn }
}

// Wait probes until prober succeeds or policy.MaxAttempts probes have failed.
// It returns the number of probes made. A successful probe returns at once
// with no trailing delay. Exhaustion returns an *UnavailableError wrapping
// ErrDependencyUnavailable. Cancellation of ctx aborts the wait between
// attempts.
func Wait(ctx context.Context, prober Prober, policy RetryPolicy, opts ...Option) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}

	o := waitOptions{clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, fmt.Errorf("wait for dependency aborted: %w", err)
		}

		err := prober.Probe(ctx)
		attempts++
		if err == nil {
			return attempts, nil
		}

		if o.onProgress != nil {
			o.onProgress(Progress{Attempt: attempts, MaxAttempts: policy.MaxAttempts, Err: err})
		}
		if attempts >= policy.MaxAttempts {
			return attempts, &UnavailableError{Attempts: attempts, LastErr: err}
		}

		select {
		case <-ctx.Done():
			return attempts, fmt.Errorf("wait for dependency aborted: %w", ctx.Err())
		case <-o.clock.After(policy.Interval):
		}
	}
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("dependency unavailable after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("dependency unavailable after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap returns ErrDependencyUnavailable and the last probe error.
func (e *UnavailableError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{ErrDependencyUnavailable}
	}
	return []error{ErrDependencyUnavailable, e.LastErr}
}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
