package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/rs/zerolog/log"
)

// OutboundEmail is one message handed to the mailer.
type OutboundEmail struct {
	To          string
	CC          []string
	Subject     string
	Body        string
	Attachments []models.Attachment
}

// MailerInterface defines the interface for outbound email delivery
type MailerInterface interface {
	Send(email OutboundEmail) error
}

// SMTPMailer delivers mail through the configured SMTP relay
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

var mailerInstance MailerInterface

// InitMailer initializes the mailer from the loaded configuration
func InitMailer() MailerInterface {
	cfg := config.GetConfig()
	mailerInstance = &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.MailFrom,
	}
	return mailerInstance
}

// GetMailer returns the initialized mailer instance
func GetMailer() MailerInterface {
	return mailerInstance
}

// SetMailer sets the mailer instance (primarily for testing)
func SetMailer(m MailerInterface) {
	mailerInstance = m
}

// Send delivers one message. Attachments are referenced by URL in the body
// rather than encoded inline; proof files and attachment links live in S3.
func (m *SMTPMailer) Send(email OutboundEmail) error {
	if m.host == "" {
		return fmt.Errorf("mailer not configured: SMTP_HOST is empty")
	}

	recipients := append([]string{email.To}, email.CC...)

	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + email.To + "\r\n")
	if len(email.CC) > 0 {
		msg.WriteString("Cc: " + strings.Join(email.CC, ", ") + "\r\n")
	}
	msg.WriteString("Subject: " + email.Subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(email.Body)
	if len(email.Attachments) > 0 {
		msg.WriteString("\r\n\r\nAttachments:\r\n")
		for _, a := range email.Attachments {
			msg.WriteString(fmt.Sprintf("- %s: %s\r\n", a.Name, a.URL))
		}
	}

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	log.Info().Str("to", email.To).Str("subject", email.Subject).Msg("Email sent")
	return nil
}
