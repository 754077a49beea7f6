// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/trailpass/trailpass/internal/auth"
	"github.com/trailpass/trailpass/internal/observability"
	"github.com/trailpass/trailpass/pkg/errutil"
)

// SessionCookieName is the cookie carrying the session token for
// browser clients. API clients use the Authorization header instead.
const SessionCookieName = "jwt"

// SessionResolver resolves a raw session token to its account.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*auth.User, error)
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// TokenFromRequest extracts the session token from the Authorization
// header, falling back to the session cookie. An empty return means
// the request carries no token at all.
func TokenFromRequest(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimPrefix(h, bearerPrefix)
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Logging logs each request with method, path, status, and duration.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover converts handler panics into generic 500 responses.
func Recover(logger *slog.Logger, production bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := oops.With("path", r.URL.Path).Errorf("panic: %v", rec)
					RenderError(w, logger, err, production)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser resolves the session token and rejects the request when
// it is missing or does not resolve. A missing token, a bad token, a
// vanished account, and a stale session each fail with their own
// message, all as 401.
func RequireUser(sessions SessionResolver, logger *slog.Logger, production bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				observability.RecordTokenVerification("missing")
				RenderError(w, logger, oops.Code("AUTH_NOT_LOGGED_IN").
					Errorf("you are not logged in, please log in to get access"), production)
				return
			}

			user, err := sessions.CurrentUser(r.Context(), token)
			if err != nil {
				observability.RecordTokenVerification(verificationResult(err))
				RenderError(w, logger, err, production)
				return
			}

			observability.RecordTokenVerification("success")
			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
		})
	}
}

// OptionalUser resolves the session token when one is present and
// valid, and otherwise lets the request through as anonymous. No
// failure here ever rejects the request; handlers downstream decide
// what an anonymous caller may see.
func OptionalUser(sessions SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.CurrentUser(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects with 403 unless the resolved user's role is in
// the allowed set. It must run downstream of RequireUser.
func RequireRole(logger *slog.Logger, production bool, allowed ...auth.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := MustUser(r.Context())
			if !user.Role.OneOf(allowed...) {
				RenderError(w, logger, oops.Code("AUTH_FORBIDDEN").
					With("role", string(user.Role)).
					Errorf("you do not have permission to perform this action"), production)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verificationResult maps a session resolution failure to a metric
// label.
func verificationResult(err error) string {
	switch errutil.CodeOf(err) {
	case "AUTH_TOKEN_EXPIRED":
		return "expired"
	case "AUTH_TOKEN_INVALID":
		return "invalid"
	case "AUTH_USER_GONE":
		return "user_gone"
	case "AUTH_STALE_SESSION":
		return "stale"
	default:
		return "error"
	}
}

// statusWriter records the status code written to the response.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
