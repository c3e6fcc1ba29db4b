// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/diamondgnom/insight/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the insight cli.
func main() {
	cmd.Run(version, commit, date)
}
