// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

// UserHandlers serves the profile endpoints and the admin listing.
type UserHandlers struct {
	svc        AuthService
	logger     *slog.Logger
	production bool
}

// NewUserHandlers creates the user endpoint handlers.
func NewUserHandlers(svc AuthService, logger *slog.Logger, production bool) *UserHandlers {
	return &UserHandlers{svc: svc, logger: logger, production: production}
}

// Me handles GET /api/v1/users/me.
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user := MustUser(r.Context())
	WriteJSON(w, http.StatusOK, envelope{
		"status": "success",
		"data":   envelope{"user": toUserPayload(user)},
	})
}

// Session handles GET /api/v1/users/session. It runs behind the
// optional resolver: an anonymous caller gets a null user, never a
// rejection.
func (h *UserHandlers) Session(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if user == nil {
		WriteJSON(w, http.StatusOK, envelope{
			"status": "success",
			"data":   envelope{"user": nil},
		})
		return
	}
	WriteJSON(w, http.StatusOK, envelope{
		"status": "success",
		"data":   envelope{"user": toUserPayload(user)},
	})
}

// UpdateMe handles PATCH /api/v1/users/me. Credential fields are
// rejected outright so this path can never bypass the password change
// flow and its token invalidation.
func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string  `json:"name"`
		Email           string  `json:"email"`
		Photo           string  `json:"photo"`
		Password        *string `json:"password"`
		PasswordConfirm *string `json:"passwordConfirm"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		RenderError(w, h.logger, oops.Code("AUTH_PASSWORD_ON_PROFILE").
			Errorf("this route is not for password updates, please use /update-password"), h.production)
		return
	}

	current := MustUser(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), current.ID, req.Name, req.Email, req.Photo)
	if err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	WriteJSON(w, http.StatusOK, envelope{
		"status": "success",
		"data":   envelope{"user": toUserPayload(user)},
	})
}

// DeleteMe handles DELETE /api/v1/users/me. The account is
// soft-deleted; nothing is removed from storage.
func (h *UserHandlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	current := MustUser(r.Context())
	if err := h.svc.Deactivate(r.Context(), current.ID); err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/users, admin only.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		RenderError(w, h.logger, err, h.production)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, u := range users {
		payload = append(payload, toUserPayload(u))
	}
	WriteJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"results": len(payload),
		"data":    envelope{"users": payload},
	})
}
