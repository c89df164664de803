package notification

import (
	"CANSpectra/internal/config"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailNotifier mails detector alert summaries as HTML.
type EmailNotifier struct {
	addr       string
	from       string
	recipients []string
	auth       smtp.Auth
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier validates the SMTP settings and creates an EmailNotifier.
func NewEmailNotifier(cfg config.SMTPConfig) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp.host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp.from is required")
	}
	recipients := parseRecipients(cfg.To)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("smtp.to needs at least one recipient")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		// PlainAuth will not send credentials until the server identifies itself as a trusted one.
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailNotifier{
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:       strings.TrimSpace(cfg.From),
		recipients: recipients,
		auth:       auth,
		sendMail:   smtp.SendMail,
	}, nil
}

// parseRecipients splits a comma-separated list, dropping blanks.
func parseRecipients(to string) []string {
	var out []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// buildMessage renders the headers and HTML body. Line breaks in the subject
// are flattened so it cannot inject headers.
func buildMessage(from string, to []string, subject, body string) []byte {
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte("To: " + strings.Join(to, ", ") + "\r\n" +
		"From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)
}

// Send mails subject and body to every configured recipient.
func (n *EmailNotifier) Send(subject, body string) error {
	msg := buildMessage(n.from, n.recipients, subject, body)
	if err := n.sendMail(n.addr, n.auth, n.from, n.recipients, msg); err != nil {
		return fmt.Errorf("failed to send email to %d recipients: %w", len(n.recipients), err)
	}
	return nil
}
