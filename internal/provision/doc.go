// SPDX-License-Identifier: MPL-2.0

// Package provision creates the application database when it is missing.
//
// Ensure is idempotent. An "already exists" failure from CREATE DATABASE
// (SQLSTATE 42P04) means a concurrent launcher won the race and is treated
// as success.
package provision
