// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/trailpass/trailpass/internal/auth"
)

// Options carries the request-independent settings the HTTP surface
// needs.
type Options struct {
	Production    bool
	CookieTTL     time.Duration
	PublicBaseURL string
}

// NewHandler builds the full route table wrapped in the logging and
// recovery middleware.
func NewHandler(svc AuthService, resets ResetService, logger *slog.Logger, opts Options) http.Handler {
	authH := NewAuthHandlers(svc, resets, logger, opts.Production, opts.CookieTTL, opts.PublicBaseURL)
	userH := NewUserHandlers(svc, logger, opts.Production)

	requireUser := RequireUser(svc, logger, opts.Production)
	optionalUser := OptionalUser(svc)

	mux := http.NewServeMux()

	// Public.
	mux.HandleFunc("POST /api/v1/users/signup", authH.Signup)
	mux.HandleFunc("POST /api/v1/users/login", authH.Login)
	mux.HandleFunc("GET /api/v1/users/logout", authH.Logout)
	mux.HandleFunc("POST /api/v1/users/forgot-password", authH.ForgotPassword)
	mux.HandleFunc("PATCH /api/v1/users/reset-password/{token}", authH.ResetPassword)
	mux.Handle("GET /api/v1/users/session", optionalUser(http.HandlerFunc(userH.Session)))

	// Authenticated.
	mux.Handle("PATCH /api/v1/users/update-password", requireUser(http.HandlerFunc(authH.UpdatePassword)))
	mux.Handle("GET /api/v1/users/me", requireUser(http.HandlerFunc(userH.Me)))
	mux.Handle("PATCH /api/v1/users/me", requireUser(http.HandlerFunc(userH.UpdateMe)))
	mux.Handle("DELETE /api/v1/users/me", requireUser(http.HandlerFunc(userH.DeleteMe)))

	// Admin.
	mux.Handle("GET /api/v1/users", requireUser(RequireRole(logger, opts.Production, auth.RoleAdmin)(http.HandlerFunc(userH.List))))

	// Liveness probe on the API listener. The observability server
	// carries the full health surface.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return Logging(logger)(Recover(logger, opts.Production)(mux))
}
