// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the launchgate command line.
//
// The container entrypoint is `launchgate run [ARGS...]`. The remaining
// commands expose single pipeline stages for init containers, health
// checks and troubleshooting.
package cmd
