// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package auth provides account and session primitives for TrailPass.
//
// # Domain Types
//
// User is the authenticated principal. Create one with NewUser, which
// validates the name and email and normalizes the email to lowercase.
// Direct struct initialization bypasses validation and may create
// invalid state. Repository implementations receive pre-validated
// values from the constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - signup, login, session resolution, password change
//   - PasswordResetService - forgot/reset password flow
//
// Session tokens are stateless signed JWTs: the server never stores
// them, and validity is determined entirely by the signature, the
// expiry claim, and the user's last password change time.
//
// Services are created with New*Service constructors that validate
// their dependencies.
package auth
