// SPDX-License-Identifier: MPL-2.0

// Package launch decides what the container runs and gates the default
// server behind its dependencies.
//
// With no arguments, or with the server program name as the first argument,
// the launcher waits for the database, provisions it, applies migrations and
// then replaces itself with the server. Any other command line is executed
// verbatim with no gating.
package launch
