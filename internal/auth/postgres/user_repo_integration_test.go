// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpass/trailpass/internal/auth"
	"github.com/trailpass/trailpass/internal/auth/postgres"
)

func createTestUser(t *testing.T, ctx context.Context, repo *postgres.UserRepository, email string) *auth.User {
	t.Helper()

	user, err := auth.NewUser("Integration User", email, "$argon2id$hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID.String())
	})
	return user
}

func TestUserRepositoryIntegration_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	t.Run("round trips a user", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "roundtrip@example.com")

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
		assert.Equal(t, "roundtrip@example.com", stored.Email)
		assert.Equal(t, auth.RoleUser, stored.Role)
		assert.Nil(t, stored.PasswordChangedAt)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "casefold@example.com")

		stored, err := repo.GetByEmail(ctx, "CaseFold@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		createTestUser(t, ctx, repo, "duplicate@example.com")

		dup, err := auth.NewUser("Other User", "Duplicate@example.com", "$argon2id$hash")
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestUserRepositoryIntegration_SoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	user := createTestUser(t, ctx, repo, "softdelete@example.com")

	require.NoError(t, repo.Deactivate(ctx, user.ID))

	// The row still exists but every auth lookup misses it.
	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	_, err = repo.GetByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	var count int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE id = $1`, user.ID.String()).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUserRepositoryIntegration_PasswordChange(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	user := createTestUser(t, ctx, repo, "pwchange@example.com")

	before := time.Now()
	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$argon2id$newhash"))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$newhash", stored.PasswordHash)
	require.NotNil(t, stored.PasswordChangedAt)

	// Second-truncated with a one-second margin: strictly before now.
	assert.True(t, stored.PasswordChangedAt.Before(before.Add(time.Second)))
	assert.True(t, stored.ChangedPasswordAfter(before.Add(-time.Hour)))
}

func TestUserRepositoryIntegration_ResetWindow(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	t.Run("open then consume", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "resetflow@example.com")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, hash, time.Now().Add(auth.ResetTokenTTL)))

		consumed, err := repo.ConsumeResetToken(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, user.ID, consumed.ID)
	})

	t.Run("expired window misses", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "resetexpired@example.com")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, hash, time.Now().Add(-time.Minute)))

		_, err = repo.ConsumeResetToken(ctx, hash)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("password update closes the window", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "resetclose@example.com")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, hash, time.Now().Add(auth.ResetTokenTTL)))
		require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$argon2id$newhash"))

		_, err = repo.ConsumeResetToken(ctx, hash)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, stored.HasOpenResetWindow())
	})

	t.Run("clear rolls back both columns", func(t *testing.T) {
		user := createTestUser(t, ctx, repo, "resetclear@example.com")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.SetResetToken(ctx, user.ID, hash, time.Now().Add(auth.ResetTokenTTL)))
		require.NoError(t, repo.ClearResetToken(ctx, user.ID))

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.ResetTokenHash)
		assert.Nil(t, stored.ResetExpiresAt)
	})
}

func TestUserRepositoryIntegration_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	user := createTestUser(t, ctx, repo, "profile@example.com")

	user.Name = "Renamed User"
	user.Photo = "new.jpg"
	require.NoError(t, repo.UpdateProfile(ctx, user))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", stored.Name)
	assert.Equal(t, "new.jpg", stored.Photo)
	// Credential columns are untouched by profile updates.
	assert.Equal(t, "$argon2id$hash", stored.PasswordHash)
}
