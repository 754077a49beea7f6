// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/trailpass/trailpass/pkg/errutil"
)

// statusByCode maps operational error codes to HTTP statuses. A code
// in this map is safe to describe to the caller; anything else is a
// programming or infrastructure fault and renders as a generic 500.
var statusByCode = map[string]int{
	"AUTH_BAD_BODY":              http.StatusBadRequest,
	"AUTH_CREDENTIALS_MISSING":   http.StatusBadRequest,
	"AUTH_INVALID_NAME":          http.StatusBadRequest,
	"AUTH_INVALID_EMAIL":         http.StatusBadRequest,
	"AUTH_INVALID_PASSWORD":      http.StatusBadRequest,
	"AUTH_EMAIL_TAKEN":           http.StatusBadRequest,
	"AUTH_RESET_TOKEN_INVALID":   http.StatusBadRequest,
	"AUTH_PASSWORD_ON_PROFILE":   http.StatusBadRequest,
	"AUTH_NOT_LOGGED_IN":         http.StatusUnauthorized,
	"AUTH_TOKEN_EXPIRED":         http.StatusUnauthorized,
	"AUTH_TOKEN_INVALID":         http.StatusUnauthorized,
	"AUTH_USER_GONE":             http.StatusUnauthorized,
	"AUTH_STALE_SESSION":         http.StatusUnauthorized,
	"AUTH_INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"AUTH_FORBIDDEN":             http.StatusForbidden,
	"AUTH_USER_NOT_FOUND":        http.StatusNotFound,
	"AUTH_RESET_DELIVERY_FAILED": http.StatusInternalServerError,
}

// messageByCode overrides the outward message for codes whose wrapped
// cause would otherwise leak internal detail.
var messageByCode = map[string]string{
	"AUTH_BAD_BODY":              "invalid request body",
	"AUTH_TOKEN_EXPIRED":         "expired token, please log in again",
	"AUTH_TOKEN_INVALID":         "invalid token, please log in again",
	"AUTH_RESET_DELIVERY_FAILED": "there was an error sending the email, please try again later",
}

// genericMessage is all a production caller learns about a
// non-operational failure.
const genericMessage = "something went very wrong"

// RenderError classifies err and writes the uniform error envelope.
// Operational errors surface their message; everything else logs in
// full and answers with a generic 500 unless the process runs in
// development, where the detail is echoed back.
func RenderError(w http.ResponseWriter, logger *slog.Logger, err error, production bool) {
	code := errutil.CodeOf(err)

	if status, operational := statusByCode[code]; operational {
		msg, overridden := messageByCode[code]
		if !overridden {
			msg = err.Error()
		}
		WriteJSON(w, status, envelope{
			"status":  statusWord(status),
			"message": msg,
		})
		return
	}

	errutil.LogError(logger, "unhandled error", err)

	msg := genericMessage
	if !production {
		msg = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, envelope{
		"status":  statusWord(http.StatusInternalServerError),
		"message": msg,
	})
}

// statusWord returns "fail" for client errors and "error" for server
// errors, matching the response envelope convention.
func statusWord(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}
	return "error"
}
