// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package mailer provides auth.Mailer implementations.
//
// Production deployments plug in a real delivery provider behind the
// auth.Mailer interface; this package ships the development
// implementation, which writes the mail content to the log instead of
// sending anything. The reset flow's rollback-on-delivery-failure
// behavior only depends on the interface's error contract, so it is
// exercised the same way against any implementation.
package mailer

import (
	"context"
	"log/slog"

	"github.com/trailpass/trailpass/internal/auth"
)

// LogMailer logs outbound mail instead of delivering it. Useful in
// development, where the reset URL in the log replaces the inbox.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendWelcome logs the welcome mail.
func (m *LogMailer) SendWelcome(ctx context.Context, user *auth.User, profileURL string) error {
	m.logger.InfoContext(ctx, "mail: welcome",
		slog.String("to", user.Email),
		slog.String("profile_url", profileURL),
	)
	return nil
}

// SendPasswordReset logs the reset mail. The reset URL carries the
// plaintext token, which is exactly why this implementation must never
// run with a production log pipeline.
func (m *LogMailer) SendPasswordReset(ctx context.Context, user *auth.User, resetURL string) error {
	m.logger.InfoContext(ctx, "mail: password reset",
		slog.String("to", user.Email),
		slog.String("reset_url", resetURL),
	)
	return nil
}
