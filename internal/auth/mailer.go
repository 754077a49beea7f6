// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import "context"

// Mailer delivers account mail out of band. Implementations live
// outside this package; the auth services only care about success or
// failure of delivery.
type Mailer interface {
	// SendWelcome greets a new account with a link to its profile.
	SendWelcome(ctx context.Context, user *User, profileURL string) error

	// SendPasswordReset delivers the plaintext reset token URL.
	SendPasswordReset(ctx context.Context, user *User, resetURL string) error
}
