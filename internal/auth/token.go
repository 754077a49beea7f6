// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinTokenSecretLen is the minimum accepted HMAC secret length. HS256
// secrets shorter than the hash output weaken the signature.
const MinTokenSecretLen = 32

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID   ulid.ULID
	IssuedAt time.Time
}

// TokenService issues and verifies stateless signed session tokens.
// Tokens are HS256 JWTs carrying the user ID and issuance time; no
// server-side session state exists, so verification is a pure function
// of the token, the secret, and the clock.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinTokenSecretLen {
		return nil, oops.Code("AUTH_WEAK_SECRET").
			With("min_bytes", MinTokenSecretLen).
			Errorf("token secret must be at least %d bytes", MinTokenSecretLen)
	}
	if ttl <= 0 {
		return nil, oops.Code("AUTH_INVALID_TTL").Errorf("token ttl must be positive")
	}
	return &TokenService{secret: secret, ttl: ttl}, nil
}

// Issue produces a signed token for the given user, valid for the
// configured duration from now.
func (s *TokenService) Issue(userID ulid.ULID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its
// claims. Failures come in exactly two kinds: AUTH_TOKEN_EXPIRED for a
// well-signed token past its expiry, and AUTH_TOKEN_INVALID for
// everything else (malformed, forged, wrong algorithm, bad claims).
// Both map to the same HTTP status; the split exists for error
// classification and logging.
func (s *TokenService) Verify(tokenString string) (TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, oops.Code("AUTH_TOKEN_EXPIRED").
				Wrapf(err, "expired token, please log in again")
		}
		return TokenClaims{}, oops.Code("AUTH_TOKEN_INVALID").
			Wrapf(err, "invalid token, please log in again")
	}

	if claims.IssuedAt == nil {
		return TokenClaims{}, oops.Code("AUTH_TOKEN_INVALID").
			Errorf("invalid token, please log in again")
	}
	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return TokenClaims{}, oops.Code("AUTH_TOKEN_INVALID").
			Wrapf(err, "invalid token, please log in again")
	}

	return TokenClaims{UserID: userID, IssuedAt: claims.IssuedAt.Time}, nil
}
