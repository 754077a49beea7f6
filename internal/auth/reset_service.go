// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// PasswordResetService handles the forgot/reset password flow.
//
// The flow is a small state machine on the user record: no reset
// pending -> reset pending (hash + expiry stored) -> consumed, expired,
// or rolled back. Requesting a reset while one is pending overwrites
// it, so only the most recently delivered token can ever consume.
type PasswordResetService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenService
	mailer Mailer
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(users UserRepository, hasher PasswordHasher, tokens *TokenService, mailer Mailer) (*PasswordResetService, error) {
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
	return &PasswordResetService{users: users, hasher: hasher, tokens: tokens, mailer: mailer}, nil
}

// RequestReset opens a reset window for the account behind the email
// and mails the plaintext token as a URL. If delivery fails the window
// is rolled back - both reset columns cleared together - and the
// caller gets a delivery failure, never a dangling undeliverable
// token. resetURL receives the plaintext token appended.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, resetURLPrefix string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_USER_NOT_FOUND").
				Errorf("there is no user with that email address")
		}
		return oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	if err := s.users.SetResetToken(ctx, user.ID, hash, time.Now().Add(ResetTokenTTL)); err != nil {
		return oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "set reset token").
			Wrap(err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user, resetURLPrefix+token); err != nil {
		// Roll back so the account is not stuck with a pending token
		// nobody received. Both columns clear in one repository call.
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			return oops.Code("AUTH_RESET_DELIVERY_FAILED").
				With("operation", "rollback reset token").
				Wrap(clearErr)
		}
		return oops.Code("AUTH_RESET_DELIVERY_FAILED").
			With("operation", "send reset mail").
			Wrap(err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets a new password. The
// token lookup matches hash and unexpired window atomically; a wrong
// token and an expired one produce the same outward failure so the
// response leaks nothing about which it was. On success the reset
// window closes, the change time is recorded, and a fresh session
// token is issued - a completed reset doubles as a login.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) (*User, string, error) {
	if rawToken == "" {
		return nil, "", oops.Code("AUTH_RESET_TOKEN_INVALID").
			Errorf("token is invalid or has expired")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return nil, "", err
	}

	user, err := s.users.ConsumeResetToken(ctx, HashResetToken(rawToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code("AUTH_RESET_TOKEN_INVALID").
				Errorf("token is invalid or has expired")
		}
		return nil, "", oops.Code("AUTH_RESET_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, "", oops.Code("AUTH_RESET_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	// Clears both reset columns and records the change time in the
	// same statement, so the token cannot be replayed.
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, "", oops.Code("AUTH_RESET_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_RESET_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}
