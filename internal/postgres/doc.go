// SPDX-License-Identifier: MPL-2.0

// Package postgres opens database/sql handles for the launcher's PostgreSQL
// dependency using the lib/pq driver.
package postgres
