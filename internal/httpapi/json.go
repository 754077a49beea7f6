// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package httpapi exposes the auth subsystem over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/samber/oops"

	"github.com/trailpass/trailpass/internal/auth"
)

// userPayload is the public projection of a user. The password hash
// and reset columns never appear in a response.
type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

func toUserPayload(u *auth.User) userPayload {
	return userPayload{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Role:  string(u.Role),
	}
}

// envelope is the uniform response shape: "status" is "success" for
// 2xx, "fail" for 4xx, and "error" for 5xx.
type envelope map[string]any

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a request body into dst, classifying failures as
// operational bad requests.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Code("AUTH_BAD_BODY").
			Wrapf(err, "invalid request body")
	}
	return nil
}
