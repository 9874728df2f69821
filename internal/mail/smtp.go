package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/renewalhub/renewalhub/internal/model"
)

// smtpPreset fills in host/port for providers users pick by name instead of
// by coordinates.
type smtpPreset struct {
	host string
	port int
}

var smtpPresets = map[string]smtpPreset{
	"gmail":    {"smtp.gmail.com", 587},
	"outlook":  {"smtp.office365.com", 587},
	"exchange": {"smtp.office365.com", 587},
	"yahoo":    {"smtp.mail.yahoo.com", 587},
	"sendgrid": {"smtp.sendgrid.net", 587},
	"mailgun":  {"smtp.mailgun.org", 587},
}

// smtpTransport sends through a plain SMTP relay with optional STARTTLS.
type smtpTransport struct {
	dialer     *gomail.Dialer
	senderName string
	senderAddr string
}

func newSMTPTransport(s model.AppSettings) (*smtpTransport, error) {
	host, port := s.SMTPHost, s.SMTPPort
	if preset, ok := smtpPresets[s.EmailProvider]; ok {
		if host == "" {
			host = preset.host
		}
		if port == 0 {
			port = preset.port
		}
	}
	if host == "" || s.SMTPUsername == "" || s.SMTPPassword == "" {
		return nil, fmt.Errorf("%w: provider %q", ErrIncompleteSettings, s.EmailProvider)
	}
	d := gomail.NewDialer(host, port, s.SMTPUsername, s.SMTPPassword)
	if !s.SMTPUseTLS {
		d.SSL = false
		d.TLSConfig = nil
	}
	return &smtpTransport{dialer: d, senderName: s.SenderName, senderAddr: s.SenderEmail}, nil
}

// Send delivers one message. gomail has no context support, so the dial and
// send run in a goroutine and the call abandons them when the deadline hits;
// the goroutine finishes on its own and is dropped.
func (t *smtpTransport) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(t.senderAddr, t.senderName))
	m.SetHeader("To", m.FormatAddress(toEmail, toName))
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	done := make(chan error, 1)
	go func() { done <- t.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: %w", ctx.Err())
	}
}
