// SPDX-License-Identifier: MPL-2.0

// Package dependency blocks until an external dependency accepts connections.
//
// Wait polls a Prober at a fixed interval until it succeeds or the attempt
// budget of a RetryPolicy is exhausted. There is no backoff and no jitter.
package dependency
