// Package notifier delivers outgoing email.
package notifier

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog"
)

type mailer interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// MailgunNotifier implements usecase.Notifier through the Mailgun API.
type MailgunNotifier struct {
	mg     mailer
	sender string
	logger zerolog.Logger
}

// NewMailgunNotifier creates a notifier for domain using apiKey.
func NewMailgunNotifier(domain, apiKey, sender string, logger zerolog.Logger) *MailgunNotifier {
	return &MailgunNotifier{
		mg:     mailgun.NewMailgun(domain, apiKey),
		sender: sender,
		logger: logger,
	}
}

// Send delivers one message. html is optional.
func (n *MailgunNotifier) Send(ctx context.Context, to, subject, text, html string) error {
	msg := n.mg.NewMessage(n.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}

	resp, id, err := n.mg.Send(ctx, msg)
	if err != nil {
		n.logger.Error().Err(err).Str("to", to).Str("mailgun_resp", resp).Msg("mailgun send failed")
		return fmt.Errorf("mailgun send failed: %w", err)
	}

	n.logger.Info().Str("to", to).Str("id", id).Msg("email sent")
	return nil
}

// LogNotifier writes messages to the log instead of sending them.
// It is used when no mail provider is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, to, subject, text, _ string) error {
	n.logger.Warn().Str("to", to).Str("subject", subject).Str("body", text).Msg("mail provider not configured, message logged")
	return nil
}
