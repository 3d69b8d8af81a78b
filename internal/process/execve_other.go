// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package process

import "errors"

func execve(string, []string, []string) error {
	return errors.ErrUnsupported
}
