// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes = 32               // 32 bytes = 64 hex chars
	ResetTokenTTL   = 10 * time.Minute // validity window
)

// GenerateResetToken creates a high-entropy random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext goes to
// the user out of band and is never persisted; only the hash is stored.
// SHA-256 suffices here: the token is already high-entropy and
// single-use, so a slow hash buys nothing.
func GenerateResetToken() (token, hash string, err error) {
	raw := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", oops.Code("AUTH_RESET_TOKEN_GENERATE_FAILED").
			With("requested_bytes", ResetTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(raw)
	hash = HashResetToken(token)
	return token, hash, nil
}

// HashResetToken computes the SHA-256 hash of a reset token. The same
// function runs on issue and on consume so the stored and presented
// hashes line up.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyResetToken checks a plaintext token against a stored hash in
// constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
