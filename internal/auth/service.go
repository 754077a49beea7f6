// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides signup, login, session resolution, and password
// change operations.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenService
	mailer Mailer
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenService, mailer Mailer) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if mailer == nil {
		return nil, oops.Errorf("mailer is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, mailer: mailer}, nil
}

// dummyPasswordHash is verified when a login email matches no account,
// keeping response time consistent with a real verification so the
// error cannot be used to enumerate emails. It is not a credential and
// matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing consistency, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Signup creates an account and issues its first session token.
// PasswordChangedAt stays unset so the token survives its own signup.
// The welcome mail is best effort; an undelivered greeting never fails
// a signup.
func (s *Service) Signup(ctx context.Context, name, email, password, profileURL string) (*User, string, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(name, email, hash)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	_ = s.mailer.SendWelcome(ctx, user, profileURL) //nolint:errcheck // Best effort

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}

// Login authenticates by email and password and issues a session
// token. A missing email and a wrong password produce the identical
// "incorrect email or password" failure, and a dummy hash is verified
// on the miss path so the two take comparable time.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", oops.Code("AUTH_CREDENTIALS_MISSING").
			Errorf("please provide email and password")
	}

	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Fall through to the dummy verification.
	default:
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").
			Errorf("incorrect email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}

// CurrentUser resolves a bearer token to its account. It fails when
// the token does not verify, when the account is gone (or soft
// deleted), or when the password changed after the token was issued.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_USER_GONE").
				Errorf("the user belonging to this token no longer exists")
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, oops.Code("AUTH_STALE_SESSION").
			Errorf("password was changed recently, please log in again")
	}

	return user, nil
}

// ChangePassword verifies the current password, stores a new hash, and
// issues a fresh token. The repository write records the change time
// with a one-second margin, so every earlier token - including the one
// that authorized this call - goes stale.
func (s *Service) ChangePassword(ctx context.Context, userID ulid.ULID, current, newPassword string) (*User, string, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code("AUTH_USER_GONE").
				Errorf("the user belonging to this token no longer exists")
		}
		return nil, "", oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return nil, "", oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").
			Errorf("your current password is wrong")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, "", oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, "", oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}

// UpdateProfile updates name, email, and photo. Credential fields are
// not accepted here; the HTTP layer rejects password updates on this
// path before the service ever sees them.
func (s *Service) UpdateProfile(ctx context.Context, userID ulid.ULID, name, email, photo string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_USER_GONE").
				Errorf("the user belonging to this token no longer exists")
		}
		return nil, oops.Code("AUTH_PROFILE_UPDATE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	if name != "" {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if email != "" {
		normalized, err := NormalizeEmail(email)
		if err != nil {
			return nil, err
		}
		user.Email = normalized
	}
	if photo != "" {
		user.Photo = photo
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all active accounts, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	return users, nil
}

// Deactivate soft-deletes an account. Subsequent auth lookups treat it
// as nonexistent; nothing is hard-deleted.
func (s *Service) Deactivate(ctx context.Context, userID ulid.ULID) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_USER_GONE").
				Errorf("the user belonging to this token no longer exists")
		}
		return oops.Code("AUTH_DEACTIVATE_FAILED").
			With("operation", "deactivate user").
			Wrap(err)
	}
	return nil
}
