// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the operation that failed, the resource involved and
// remediation hints. The issue catalog holds Markdown help for the launcher's
// fatal conditions; the CLI renders an entry after the one-line diagnostic.
package issue
