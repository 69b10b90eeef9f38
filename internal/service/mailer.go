package service

import (
	"context"
	"fmt"
	"log/slog"
)

// LogMailer renders the confirmation links and hands them to the log.
// Actual mail transport is deployment-specific and sits behind the
// usecase.Mailer port; this implementation keeps development and tests
// self-contained.
type LogMailer struct {
	baseURL string
}

func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{baseURL: baseURL}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, name, confirmToken, destroyToken string) error {
	slog.InfoContext(
		ctx, "comment confirmation requested",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("confirm", fmt.Sprintf("%s/verify?token=%s", m.baseURL, confirmToken)),
		slog.String("destroy", fmt.Sprintf("%s/verify?token=%s", m.baseURL, destroyToken)),
		slog.String("module", "mailer"),
	)
	return nil
}
