// SPDX-License-Identifier: MPL-2.0

// Package config builds the launcher configuration using Viper with CUE as the file format.
//
// Configuration is assembled once per process, in this order of precedence
// (highest first): the process environment, dotenv files loaded with godotenv
// (never overriding variables that are already set), an optional CUE file
// validated against the embedded #Config schema, and built-in defaults.
//
// The resulting Config is passed explicitly to every launcher stage; no stage
// reads the environment on its own.
package config
