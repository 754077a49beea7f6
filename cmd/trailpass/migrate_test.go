// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpass/trailpass/internal/store"
	"github.com/trailpass/trailpass/pkg/errutil"
)

func TestMigrateCommand_HasSubcommands(t *testing.T) {
	cmd := NewMigrateCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"up", "down", "steps", "version"} {
		assert.True(t, names[want], "missing %q subcommand", want)
	}
}

func TestMigrateSteps_RejectsNonIntegerArgument(t *testing.T) {
	cmd := NewMigrateCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"steps", "abc"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_BAD_ARG")
}

func TestWithMigrator_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := withMigrator(func(*store.Migrator) error { return nil })
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
