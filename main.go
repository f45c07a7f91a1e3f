// SPDX-License-Identifier: MPL-2.0

// Command glops automates common GitLab API chores.
package main

import cmd "github.com/glops/glops/cmd/glops"

func main() {
	cmd.Execute()
}
