// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("trailpass %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
