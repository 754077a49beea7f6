// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/trailpass/trailpass/internal/auth"
	"github.com/trailpass/trailpass/internal/observability"
	"github.com/trailpass/trailpass/pkg/errutil"
)

// AuthService is the slice of the auth service the handlers use.
type AuthService interface {
	SessionResolver
	Signup(ctx context.Context, name, email, password, profileURL string) (*auth.User, string, error)
	Login(ctx context.Context, email, password string) (*auth.User, string, error)
	ChangePassword(ctx context.Context, userID ulid.ULID, current, newPassword string) (*auth.User, string, error)
	UpdateProfile(ctx context.Context, userID ulid.ULID, name, email, photo string) (*auth.User, error)
	ListUsers(ctx context.Context) ([]*auth.User, error)
	Deactivate(ctx context.Context, userID ulid.ULID) error
}

// ResetService is the slice of the password reset service the
// handlers use.
type ResetService interface {
	RequestReset(ctx context.Context, email, resetURLPrefix string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) (*auth.User, string, error)
}

// AuthHandlers serves the signup, login, and password lifecycle
// endpoints.
type AuthHandlers struct {
	svc    AuthService
	resets ResetService
	logger *slog.Logger

	production    bool
	cookieTTL     time.Duration
	publicBaseURL string
}

// NewAuthHandlers creates the auth endpoint handlers.
func NewAuthHandlers(svc AuthService, resets ResetService, logger *slog.Logger, production bool, cookieTTL time.Duration, publicBaseURL string) *AuthHandlers {
	return &AuthHandlers{
		svc:           svc,
		resets:        resets,
		logger:        logger,
		production:    production,
		cookieTTL:     cookieTTL,
		publicBaseURL: publicBaseURL,
	}
}

// setSessionCookie mirrors the issued token into the session cookie so
// browser clients authenticate without handling the token themselves.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeSession writes the uniform authenticated response: token in the
// body, token in the cookie, public user projection under data.user.
func (h *AuthHandlers) writeSession(w http.ResponseWriter, status int, user *auth.User, token string) {
	h.setSessionCookie(w, token, h.cookieTTL)
	WriteJSON(w, status, envelope{
		"status": "success",
		"token":  token,
		"data":   envelope{"user": toUserPayload(user)},
	})
}

// Signup handles POST /api/v1/users/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	user, token, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password, h.publicBaseURL+"/me")
	if err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	h.writeSession(w, http.StatusCreated, user, token)
}

// Login handles POST /api/v1/users/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.RecordLogin("failure")
		RenderError(w, h.logger, err, h.production)
		return
	}

	observability.RecordLogin("success")
	h.writeSession(w, http.StatusOK, user, token)
}

// Logout handles GET /api/v1/users/logout. The session token is
// stateless, so logout is purely a cookie overwrite: a short-lived
// non-token value replaces the real one.
func (h *AuthHandlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
	WriteJSON(w, http.StatusOK, envelope{"status": "success"})
}

// ForgotPassword handles POST /api/v1/users/forgot-password.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	prefix := h.publicBaseURL + "/api/v1/users/reset-password/"
	if err := h.resets.RequestReset(r.Context(), req.Email, prefix); err != nil {
		if errutil.CodeOf(err) == "AUTH_RESET_DELIVERY_FAILED" {
			observability.RecordPasswordReset("delivery_failed")
		}
		RenderError(w, h.logger, err, h.production)
		return
	}

	observability.RecordPasswordReset("requested")
	WriteJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"message": "token sent to email",
	})
}

// ResetPassword handles PATCH /api/v1/users/reset-password/{token}.
// A completed reset doubles as a login.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	user, token, err := h.resets.ResetPassword(r.Context(), r.PathValue("token"), req.Password)
	if err != nil {
		observability.RecordPasswordReset("rejected")
		RenderError(w, h.logger, err, h.production)
		return
	}

	observability.RecordPasswordReset("consumed")
	h.writeSession(w, http.StatusOK, user, token)
}

// UpdatePassword handles PATCH /api/v1/users/update-password. The
// fresh token in the response replaces the caller's old one, which the
// change itself just invalidated.
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PasswordCurrent string `json:"passwordCurrent"`
		Password        string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	current := MustUser(r.Context())
	user, token, err := h.svc.ChangePassword(r.Context(), current.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	h.writeSession(w, http.StatusOK, user, token)
}
