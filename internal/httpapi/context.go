// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"context"

	"github.com/trailpass/trailpass/internal/auth"
)

type userContextKey struct{}

// SetUser returns a child context carrying the resolved user.
func SetUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFrom returns the user carried by the context, or nil when the
// request is anonymous.
func UserFrom(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userContextKey{}).(*auth.User)
	return user
}

// MustUser returns the user carried by the context and panics when
// there is none. Role checks run strictly after mandatory session
// resolution; reaching one without a principal is a routing bug, not a
// recoverable request error.
func MustUser(ctx context.Context) *auth.User {
	user := UserFrom(ctx)
	if user == nil {
		panic("httpapi: no user in context; RequireUser must run before role checks")
	}
	return user
}
