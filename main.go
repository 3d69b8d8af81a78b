// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/launchgate/cmd/launchgate"

func main() {
	cmd.Execute()
}
