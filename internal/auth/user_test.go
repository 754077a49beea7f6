// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpass/trailpass/internal/auth"
	"github.com/trailpass/trailpass/pkg/errutil"
)

func TestRole(t *testing.T) {
	t.Run("known roles are valid", func(t *testing.T) {
		for _, r := range []auth.Role{auth.RoleUser, auth.RoleGuide, auth.RoleLeadGuide, auth.RoleAdmin} {
			assert.True(t, r.Valid(), string(r))
		}
	})

	t.Run("unknown role is invalid", func(t *testing.T) {
		assert.False(t, auth.Role("superuser").Valid())
	})

	t.Run("OneOf matches membership", func(t *testing.T) {
		assert.True(t, auth.RoleAdmin.OneOf(auth.RoleAdmin, auth.RoleLeadGuide))
		assert.False(t, auth.RoleUser.OneOf(auth.RoleAdmin, auth.RoleLeadGuide))
	})
}

func TestNewUser(t *testing.T) {
	t.Run("creates user with defaults", func(t *testing.T) {
		user, err := auth.NewUser("Ada Lovelace", "Ada@Example.COM", "$argon2id$hash")
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, auth.DefaultPhoto, user.Photo)
		assert.Equal(t, auth.RoleUser, user.Role)
		assert.True(t, user.Active)
		assert.NotZero(t, user.ID)
	})

	t.Run("password changed time stays unset at signup", func(t *testing.T) {
		user, err := auth.NewUser("Ada Lovelace", "ada@example.com", "$argon2id$hash")
		require.NoError(t, err)
		assert.Nil(t, user.PasswordChangedAt)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := auth.NewUser("", "ada@example.com", "hash")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_NAME")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := auth.NewUser("Ada", "not-an-email", "hash")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUser("Ada", "ada@example.com", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_HASH")
	})
}

func TestChangedPasswordAfter(t *testing.T) {
	t.Run("false when password never changed", func(t *testing.T) {
		user := &auth.User{}
		assert.False(t, user.ChangedPasswordAfter(time.Now()))
	})

	t.Run("true when token predates the change", func(t *testing.T) {
		changed := time.Now()
		user := &auth.User{PasswordChangedAt: &changed}
		assert.True(t, user.ChangedPasswordAfter(changed.Add(-time.Minute)))
	})

	t.Run("false when token postdates the change", func(t *testing.T) {
		changed := time.Now().Add(-time.Hour)
		user := &auth.User{PasswordChangedAt: &changed}
		assert.False(t, user.ChangedPasswordAfter(time.Now()))
	})

	t.Run("same second counts as not stale", func(t *testing.T) {
		// Second-granularity comparison: equal Unix seconds are not
		// "before". The write side subtracts a one-second margin to
		// compensate.
		changed := time.Unix(1_700_000_000, 500_000_000)
		issued := time.Unix(1_700_000_000, 0)
		user := &auth.User{PasswordChangedAt: &changed}
		assert.False(t, user.ChangedPasswordAfter(issued))
	})
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expectCode string
	}{
		{name: "valid name", input: "Ada Lovelace"},
		{name: "empty", input: "", expectCode: "AUTH_INVALID_NAME"},
		{name: "whitespace only", input: "   ", expectCode: "AUTH_INVALID_NAME"},
		{name: "too short", input: "A", expectCode: "AUTH_INVALID_NAME"},
		{name: "too long", input: strings.Repeat("a", auth.MaxNameLength+1), expectCode: "AUTH_INVALID_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateName(tt.input)
			if tt.expectCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.expectCode)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		email, err := auth.NormalizeEmail("  Ada@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email)
	})

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing at", input: "ada.example.com"},
		{name: "missing domain", input: "ada@"},
		{name: "missing tld", input: "ada@example"},
		{name: "contains space", input: "ada lovelace@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NormalizeEmail(tt.input)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Run("accepts minimum length", func(t *testing.T) {
		assert.NoError(t, auth.ValidatePassword(strings.Repeat("x", auth.MinPasswordLength)))
	})

	t.Run("rejects empty", func(t *testing.T) {
		err := auth.ValidatePassword("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})

	t.Run("rejects short", func(t *testing.T) {
		err := auth.ValidatePassword("short")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})
}

func TestHasOpenResetWindow(t *testing.T) {
	hash := "somehash"
	expires := time.Now().Add(10 * time.Minute)

	t.Run("open when both fields set", func(t *testing.T) {
		user := &auth.User{ResetTokenHash: &hash, ResetExpiresAt: &expires}
		assert.True(t, user.HasOpenResetWindow())
	})

	t.Run("closed when fields unset", func(t *testing.T) {
		user := &auth.User{}
		assert.False(t, user.HasOpenResetWindow())
	})
}
