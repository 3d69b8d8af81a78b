// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// FakeClock implements a manually controlled clock for testing.
	// Time only advances when Advance() is called, or automatically on every
	// After() call when the clock was created with NewAutoClock.
	FakeClock struct {
		current     time.Time
		autoAdvance bool
		mu          sync.Mutex
		waiters     []waiter
		waits       []time.Duration
	}

	// waiter tracks a pending After() call.
	waiter struct {
		target time.Time
		ch     chan time.Time
	}
)

// referenceTime is the fixed starting point for clocks created with a zero time.
var referenceTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock creates a FakeClock initialized to the given time.
// If initial is zero, defaults to a fixed reference time for reproducibility.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = referenceTime
	}
	return &FakeClock{current: initial}
}

// NewAutoClock creates a FakeClock that advances by d and fires immediately
// whenever After(d) is called. Use it for loops that sleep on the caller's
// goroutine, where nobody else is around to call Advance.
func NewAutoClock() *FakeClock {
	return &FakeClock{current: referenceTime, autoAdvance: true}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives the time when the target time is reached.
// Every requested duration is recorded and available through Waits.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	if c.autoAdvance {
		c.current = c.current.Add(d)
		ch <- c.current
		c.notifyWaiters()
		return ch
	}

	c.waiters = append(c.waiters, waiter{target: c.current.Add(d), ch: ch})
	return ch
}

// Waits returns a copy of every duration passed to After, in call order.
func (c *FakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}

// Advance moves the fake time forward by d.
// This triggers any After() channels waiting for times before the new current.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.notifyWaiters()
}

// notifyWaiters notifies all waiters whose target time has been reached.
// Must be called with mu held.
func (c *FakeClock) notifyWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !c.current.Before(w.target) {
			select {
			case w.ch <- c.current:
			default:
			}
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
