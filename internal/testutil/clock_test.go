// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFakeClock_Now_DefaultTime(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	if got := clock.Now(); !got.Equal(referenceTime) {
		t.Errorf("FakeClock.Now() with zero time = %v, want %v", got, referenceTime)
	}
}

func TestFakeClock_AfterFiresOnAdvance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	ch := clock.After(time.Second)

	select {
	case <-ch:
		t.Fatal("After(1s) fired before Advance")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After(1s) fired after only 500ms")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-ch:
	default:
		t.Fatal("After(1s) did not fire after 1s")
	}
}

func TestFakeClock_AfterImmediateForZero(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	select {
	case <-clock.After(0):
	default:
		t.Error("After(0) should fire immediately")
	}
}

func TestAutoClock_AdvancesAndRecords(t *testing.T) {
	t.Parallel()

	clock := NewAutoClock()
	start := clock.Now()

	for range 3 {
		select {
		case <-clock.After(time.Second):
		default:
			t.Fatal("auto clock should fire immediately")
		}
	}

	if got := clock.Now().Sub(start); got != 3*time.Second {
		t.Errorf("auto clock advanced %v, want 3s", got)
	}
	want := []time.Duration{time.Second, time.Second, time.Second}
	if diff := cmp.Diff(want, clock.Waits()); diff != "" {
		t.Errorf("Waits() mismatch (-want +got):\n%s", diff)
	}
}
