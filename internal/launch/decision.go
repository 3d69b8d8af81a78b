// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"fmt"
	"slices"

	"mvdan.cc/sh/v3/shell"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/pkg/types"
)

const (
	// ModeServer runs the gated pipeline and then the default server.
	ModeServer Mode = iota + 1
	// ModeOverride runs the supplied command with no gating.
	ModeOverride
)

type (
	// Mode is the dispatch outcome for an invocation.
	Mode int

	// Decision is the command the launcher will finally execute.
	Decision struct {
		Mode Mode
		Argv []string
	}
)

// Decide routes an invocation. An empty args, or args whose first element
// equals server.Program, selects ModeServer; extra elements after the token
// are appended to the server command line. Anything else is ModeOverride
// with args unchanged.
func Decide(args []string, server config.ServerConfig) (Decision, error) {
	if len(args) > 0 && args[0] != server.Program {
		return Decision{Mode: ModeOverride, Argv: slices.Clone(args)}, nil
	}

	argv, err := ServerCommand(server)
	if err != nil {
		return Decision{}, err
	}
	if len(args) > 1 {
		argv = append(argv, args[1:]...)
	}
	return Decision{Mode: ModeServer, Argv: argv}, nil
}

// ServerCommand builds the default server command line:
//
//	<program> --bind <host>:8000 --workers <n> [args...] <app>
func ServerCommand(server config.ServerConfig) ([]string, error) {
	extra, err := shell.Fields(server.Args, nil)
	if err != nil {
		return nil, fmt.Errorf("parse server args %q: %w", server.Args, err)
	}

	workers := server.Workers
	if workers.Validate() != nil {
		workers = types.DefaultWorkerCount
	}

	argv := []string{
		server.Program,
		"--bind", config.ServerPort.BindAddress(server.Host),
		"--workers", workers.String(),
	}
	argv = append(argv, extra...)
	return append(argv, server.App), nil
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeOverride:
		return "override"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
