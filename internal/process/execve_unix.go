// SPDX-License-Identifier: MPL-2.0

//go:build unix

package process

import "golang.org/x/sys/unix"

func execve(path string, argv, env []string) error {
	return unix.Exec(path, argv, env)
}
