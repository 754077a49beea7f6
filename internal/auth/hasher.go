// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Fixed argon2id cost parameters (OWASP-recommended). Changing them
// only affects newly written hashes; verification reads the parameters
// back out of the stored PHC string.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks the password against a stored hash in constant
	// time. Returns (true, nil) on match, (false, nil) on mismatch,
	// or an error for an unparseable hash.
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id with the
// fixed cost parameters above, encoded as a PHC string:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify checks the password against the stored PHC-encoded hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, key, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// parsePHC decodes a $argon2id$ PHC string into its parameters, salt,
// and derived key.
func parsePHC(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	var version int
	var memory, time, threads uint32
	var saltB64, keyB64 string
	n, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &memory, &time, &threads, &saltB64)
	if err != nil || n != 5 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	// Sscanf's %s is greedy; the salt and key are still joined by '$'.
	var ok bool
	saltB64, keyB64, ok = cutLast(saltB64, '$')
	if !ok {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(keyB64)
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("empty derived key")
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").
			Errorf("threads value %d out of range", threads)
	}

	p.memory = memory
	p.time = time
	p.threads = uint8(threads)
	return p, salt, key, nil
}

// cutLast splits s around the last occurrence of sep.
func cutLast(s string, sep byte) (before, after string, found bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
