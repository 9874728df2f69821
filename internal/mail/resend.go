package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/renewalhub/renewalhub/internal/model"
)

// resendTransport sends through the Resend HTTP API.
type resendTransport struct {
	client     *resend.Client
	senderName string
	senderAddr string
}

func newResendTransport(s model.AppSettings) *resendTransport {
	return &resendTransport{
		client:     resend.NewClient(s.ResendAPIKey),
		senderName: s.SenderName,
		senderAddr: s.SenderEmail,
	}
}

func (t *resendTransport) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := t.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", t.senderName, t.senderAddr),
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
