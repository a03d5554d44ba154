package mailer

import (
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// Mailer delivers rendered templates to a real inbox for visual inspection.
type Mailer interface {
	SendTestEmail(to, subject, htmlBody string) error
}

// Config holds the configuration for the mailer
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// SMTPMailer implements the Mailer interface using SMTP
type SMTPMailer struct {
	config *Config
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// SendTestEmail sends a rendered template to the given recipient. The subject
// is prefixed so test sends are recognizable in the inbox.
func (m *SMTPMailer) SendTestEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set email from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set email recipient: %w", err)
	}

	if subject == "" {
		subject = "Untitled template"
	}
	msg.Subject(fmt.Sprintf("[Test] %s", subject))
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(
		m.config.SMTPHost,
		mail.WithPort(m.config.SMTPPort),
		mail.WithUsername(m.config.SMTPUsername),
		mail.WithPassword(m.config.SMTPPassword),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send test email: %w", err)
	}
	return nil
}
