// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the TrailPass CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trailpass",
		Short: "TrailPass - tour booking accounts and sessions",
		Long: `TrailPass serves the account and session API for the tour
booking platform: signup, login, session verification, role checks,
and the password reset flow.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
