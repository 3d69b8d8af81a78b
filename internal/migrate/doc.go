// SPDX-License-Identifier: MPL-2.0

// Package migrate runs the schema migration stage.
//
// A Migrator is an idempotent black box: Up applies whatever is pending and
// succeeds when nothing is. Three engines exist: an external command (the
// web framework's own migrate), versioned SQL files applied with
// golang-migrate, and a no-op.
package migrate
