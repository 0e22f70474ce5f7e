// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the SQLPilot CLI.
package main

import (
	"sqlpilot/cli/cmd"
)

func main() {
	cmd.Execute()
}
