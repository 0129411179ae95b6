package mailer

import (
	"context"
	"fmt"

	"github.com/carebridge/telehealth-api/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional email. Abstracted so tests can substitute
// a recording fake for the SMTP dialer.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer sends email over SMTP
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ Sender = (*Mailer)(nil)

// NewMailer creates a Mailer from SMTP configuration
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a plain-text message to a single recipient
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	// gomail has no context support; bail out early if the caller is gone
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}
