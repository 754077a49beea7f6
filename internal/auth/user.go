// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Name validation constraints.
const (
	MinNameLength = 2
	MaxNameLength = 50
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// DefaultPhoto is assigned to accounts that never uploaded a photo.
const DefaultPhoto = "default.jpg"

// emailRegex is a permissive sanity check, not a full RFC 5322 parser.
// Deliverability is only ever proven by the reset-mail round trip.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Role describes what a user account is allowed to do.
type Role string

// Known roles, from least to most privileged.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// OneOf reports whether r is a member of the allowed set.
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// User represents a TrailPass account.
//
// PasswordHash is never serialized outward; the HTTP layer builds its
// own response shape from the public fields. ResetTokenHash and
// ResetExpiresAt are both set while a reset window is open and both
// nil otherwise - the store enforces the pairing.
type User struct {
	ID                ulid.ULID
	Name              string
	Email             string
	Photo             string
	Role              Role
	PasswordHash      string
	PasswordChangedAt *time.Time
	ResetTokenHash    *string
	ResetExpiresAt    *time.Time
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewUser creates a validated User with the default role and photo.
// The email is normalized to lowercase. PasswordChangedAt stays nil:
// setting it at signup would immediately invalidate the session token
// the signup itself issues.
func NewUser(name, email, passwordHash string) (*User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_EMPTY_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Name:         name,
		Email:        normalized,
		Photo:        DefaultPhoto,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ChangedPasswordAfter reports whether the password was changed after
// the given token issuance time. Comparison happens at whole-second
// granularity: JWT iat claims carry seconds, and the stored timestamp
// is second-truncated with a one-second margin at write time, so a
// token minted in the same wall-clock second as the change is still
// treated as stale.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// HasOpenResetWindow reports whether a password reset is pending.
func (u *User) HasOpenResetWindow() bool {
	return u.ResetTokenHash != nil && u.ResetExpiresAt != nil
}

// ValidateName validates a display name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return oops.Code("AUTH_INVALID_NAME").Errorf("name cannot be empty")
	}
	if len(trimmed) < MinNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("min", MinNameLength).
			Errorf("name must be at least %d characters", MinNameLength)
	}
	if len(trimmed) > MaxNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// NormalizeEmail validates an email address and returns it lowercased.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(trimmed) {
		return "", oops.Code("AUTH_INVALID_EMAIL").
			With("email", trimmed).
			Errorf("please provide a valid email address")
	}
	return strings.ToLower(trimmed), nil
}

// ValidatePassword validates a candidate raw password.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Errorf("password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// UserRepository manages user persistence.
//
// Every read used for authentication excludes soft-deleted accounts;
// the filter lives inside the implementation, never with the caller.
type UserRepository interface {
	// Create stores a new user. A duplicate email fails with an
	// AUTH_EMAIL_TAKEN error.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves an active user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves an active user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all active users, newest first.
	List(ctx context.Context) ([]*User, error)

	// UpdateProfile updates name, email, and photo only. It never
	// touches the credential or reset columns, so an already-hashed
	// password can never be re-hashed by an unrelated update.
	UpdateProfile(ctx context.Context, user *User) error

	// UpdatePassword atomically stores a new password hash, records
	// the change time (second-truncated, minus a one-second margin),
	// and clears both reset columns.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// SetResetToken opens a reset window, overwriting any pending one.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// ClearResetToken closes the reset window, clearing both columns.
	ClearResetToken(ctx context.Context, id ulid.ULID) error

	// ConsumeResetToken retrieves the active user whose stored reset
	// hash matches AND whose window has not expired, in one query.
	// A hash match with an elapsed window is ErrNotFound.
	ConsumeResetToken(ctx context.Context, tokenHash string) (*User, error)

	// Deactivate soft-deletes a user. The account disappears from all
	// auth lookups but is never hard-deleted here.
	Deactivate(ctx context.Context, id ulid.ULID) error
}
