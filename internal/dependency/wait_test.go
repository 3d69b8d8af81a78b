// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/invowk/launchgate/internal/testutil"
)

var errRefused = errors.New("connection refused")

// scriptedProber fails until its succeedOn-th call. succeedOn == 0 never succeeds.
type scriptedProber struct {
	succeedOn int
	calls     int
}

func (p *scriptedProber) Probe(context.Context) error {
	p.calls++
	if p.succeedOn > 0 && p.calls >= p.succeedOn {
		return nil
	}
	return errRefused
}

func TestDefaultRetryPolicy(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	if p.MaxAttempts != 30 || p.Interval != time.Second {
		t.Errorf("DefaultRetryPolicy() = %+v, want 30 attempts / 1s", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWait_AlwaysFailing(t *testing.T) {
	t.Parallel()

	for _, budget := range []int{1, 2, 5, DefaultMaxAttempts} {
		policy := RetryPolicy{MaxAttempts: budget, Interval: time.Second}
		prober := &scriptedProber{}
		clock := testutil.NewAutoClock()

		attempts, err := Wait(context.Background(), prober, policy, WithClock(clock))

		if !errors.Is(err, ErrDependencyUnavailable) {
			t.Fatalf("budget %d: Wait() error = %v, want ErrDependencyUnavailable", budget, err)
		}
		if !errors.Is(err, errRefused) {
			t.Errorf("budget %d: error should wrap the last probe error", budget)
		}
		var unavailable *UnavailableError
		if !errors.As(err, &unavailable) || unavailable.Attempts != budget {
			t.Errorf("budget %d: UnavailableError = %+v", budget, unavailable)
		}
		if attempts != budget || prober.calls != budget {
			t.Errorf("budget %d: attempts = %d, probes = %d", budget, attempts, prober.calls)
		}
		wantWaits := slices.Repeat([]time.Duration{time.Second}, budget-1)
		if diff := cmp.Diff(wantWaits, clock.Waits(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("budget %d: sleeps mismatch (-want +got):\n%s", budget, diff)
		}
	}
}

func TestWait_SucceedsOnAttemptK(t *testing.T) {
	t.Parallel()

	const budget = 10
	for k := 1; k <= budget; k++ {
		prober := &scriptedProber{succeedOn: k}
		clock := testutil.NewAutoClock()
		policy := RetryPolicy{MaxAttempts: budget, Interval: 250 * time.Millisecond}

		attempts, err := Wait(context.Background(), prober, policy, WithClock(clock))
		if err != nil {
			t.Fatalf("k=%d: Wait() error = %v", k, err)
		}
		if attempts != k || prober.calls != k {
			t.Errorf("k=%d: attempts = %d, probes = %d", k, attempts, prober.calls)
		}
		if got := len(clock.Waits()); got != k-1 {
			t.Errorf("k=%d: %d sleeps, want %d", k, got, k-1)
		}
	}
}

func TestWait_ReportsProgress(t *testing.T) {
	t.Parallel()

	var reports []Progress
	prober := &scriptedProber{succeedOn: 3}
	_, err := Wait(context.Background(), prober, RetryPolicy{MaxAttempts: 30, Interval: time.Second},
		WithClock(testutil.NewAutoClock()),
		WithProgress(func(p Progress) { reports = append(reports, p) }),
	)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := []Progress{
		{Attempt: 1, MaxAttempts: 30, Err: errRefused},
		{Attempt: 2, MaxAttempts: 30, Err: errRefused},
	}
	if diff := cmp.Diff(want, reports, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestWait_CanceledDuringSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	clock := testutil.NewFakeClock(time.Time{})
	prober := ProberFunc(func(context.Context) error {
		cancel()
		return errRefused
	})

	attempts, err := Wait(ctx, prober, DefaultRetryPolicy(), WithClock(clock))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrDependencyUnavailable) {
		t.Error("cancellation must not be reported as exhaustion")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWait_InvalidPolicy(t *testing.T) {
	t.Parallel()

	tests := []RetryPolicy{
		{MaxAttempts: 0, Interval: time.Second},
		{MaxAttempts: 3, Interval: -time.Second},
	}
	for _, policy := range tests {
		prober := &scriptedProber{}
		if _, err := Wait(context.Background(), prober, policy); !errors.Is(err, ErrInvalidRetryPolicy) {
			t.Errorf("Wait(%+v) error = %v, want ErrInvalidRetryPolicy", policy, err)
		}
		if prober.calls != 0 {
			t.Errorf("Wait(%+v) probed %d times", policy, prober.calls)
		}
	}
}

