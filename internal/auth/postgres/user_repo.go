// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package postgres implements auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/trailpass/trailpass/internal/auth"
)

// poolIface is the subset of pgxpool.Pool the repository uses.
// Satisfied by both *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// userColumns is the scan order shared by every SELECT.
const userColumns = `id, name, email, photo, role, password_hash,
	       password_changed_at, reset_token_hash, reset_expires_at,
	       active, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
//
// Every read filters on active = TRUE: soft-deleted accounts are
// invisible to authentication. The filter is part of the SQL here, not
// something callers supply.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, name, email, photo, role, password_hash,
			password_changed_at, reset_token_hash, reset_expires_at,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.Photo,
		string(user.Role),
		user.PasswordHash,
		user.PasswordChangedAt,
		user.ResetTokenHash,
		user.ResetExpiresAt,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("AUTH_EMAIL_TAKEN").
				With("email", user.Email).
				Errorf("an account with that email already exists")
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an active user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND active
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves an active user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1) AND active
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// List returns all active users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate user rows").
			Wrap(err)
	}
	return users, nil
}

// UpdateProfile updates name, email, and photo. The credential and
// reset columns are deliberately absent from the column list, so a
// profile update can never re-hash or clobber them.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *auth.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, photo = $4, updated_at = now()
		WHERE id = $1 AND active
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.Photo,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("AUTH_EMAIL_TAKEN").
				With("email", user.Email).
				Errorf("an account with that email already exists")
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update profile").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword stores a new password hash, records the change time,
// and closes any open reset window, all in one statement.
//
// The change time is truncated to whole seconds and moved one second
// into the past. JWT issued-at claims carry second precision, so
// without the margin a token minted in the same wall-clock second as
// the change would compare equal and slip past the staleness check.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = date_trunc('second', now()) - interval '1 second',
		    reset_token_hash = NULL,
		    reset_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1 AND active
	`, id.String(), passwordHash)
	if err != nil {
		return oops.Code("USER_PASSWORD_UPDATE_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetResetToken opens a reset window, overwriting any pending one.
func (r *UserRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = $2, reset_expires_at = $3, updated_at = now()
		WHERE id = $1 AND active
	`, id.String(), tokenHash, expiresAt)
	if err != nil {
		return oops.Code("USER_RESET_SET_FAILED").
			With("operation", "set reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearResetToken closes the reset window. Both columns clear together;
// the table's check constraint forbids one without the other.
func (r *UserRepository) ClearResetToken(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND active
	`, id.String())
	if err != nil {
		return oops.Code("USER_RESET_CLEAR_FAILED").
			With("operation", "clear reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken retrieves the active user whose stored reset hash
// matches and whose window has not elapsed. Both conditions sit in the
// same WHERE clause against the same row: a hash match on an expired
// window is a miss, never a partial success.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE reset_token_hash = $1 AND reset_expires_at > now() AND active
	`, tokenHash)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_RESET_CONSUME_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}
	return user, nil
}

// Deactivate soft-deletes a user.
func (r *UserRepository) Deactivate(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET active = FALSE, updated_at = now()
		WHERE id = $1 AND active
	`, id.String())
	if err != nil {
		return oops.Code("USER_DEACTIVATE_FAILED").
			With("operation", "deactivate user").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser reads one user row in userColumns order.
func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	var idStr, roleStr string

	err := row.Scan(
		&idStr,
		&u.Name,
		&u.Email,
		&u.Photo,
		&roleStr,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.ResetTokenHash,
		&u.ResetExpiresAt,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	u.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	u.Role = auth.Role(roleStr)

	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (duplicate email).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
