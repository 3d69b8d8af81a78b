// SPDX-License-Identifier: MPL-2.0

// Package process replaces the current process image with another program.
//
// After a successful Replace the launcher no longer exists: the new program
// keeps the PID (PID 1 in a container), inherits the standard streams, and
// receives signals directly.
package process
