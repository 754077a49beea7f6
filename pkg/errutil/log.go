// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package errutil provides helpers for working with coded oops errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// CodeOf extracts the code from an oops error. Returns "" for plain
// errors or oops errors without a code.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code, and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code, _ := oopsErr.Code().(string); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
