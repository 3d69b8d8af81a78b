// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the launcher's tests.
//
// FakeClock replaces real sleeps in the dependency-wait loop and records every
// requested wait. StartPostgres runs a disposable PostgreSQL server through
// testcontainers-go for integration tests. The Must* helpers fail the test
// immediately instead of returning errors.
package testutil
