package identity

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"voxscribe/internal/infra"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// NewMailer picks SMTP when a host is configured and falls back to logging
// the link, which is what local development uses.
func NewMailer(cfg *infra.Config, logger infra.Logger) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return LogMailer{Logger: logger}
	}
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

// SMTPMailer sends plain-text mail through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	msg := buildResetMessage(m.From, to, link)
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	if err := send(addr, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildResetMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Reset your VoxScribe password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString("Someone asked to reset the password for this account.\r\n\r\n")
	b.WriteString("Open the link below within the next hour to choose a new password:\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("If this was not you, ignore this email.\r\n")
	return []byte(b.String())
}

// LogMailer writes reset links to the log instead of sending them.
type LogMailer struct {
	Logger infra.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.Logger.Info().Str("to", to).Str("link", link).Msg("password reset email")
	return nil
}
