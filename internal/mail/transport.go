// Package mail abstracts the outbound email collaborator. The engine only
// sees the Transport interface; the concrete provider is chosen from the
// settings record at each call site, so an admin switching providers takes
// effect on the next sweep without a restart.
package mail

import (
	"context"
	"errors"
	"time"

	"github.com/renewalhub/renewalhub/internal/model"
)

// sendTimeout bounds a single transport call so one hung provider cannot
// stall the whole sweep.
const sendTimeout = 15 * time.Second

// Transport delivers one email to one recipient.
type Transport interface {
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

// ErrIncompleteSettings is returned by New when the selected provider is
// missing required configuration (e.g. SMTP without host or credentials).
var ErrIncompleteSettings = errors.New("mail settings incomplete")

// New selects a transport from the settings record: "resend" uses the
// Resend API, anything else goes through SMTP with presets applied for
// well-known provider names.
func New(s model.AppSettings) (Transport, error) {
	if s.EmailProvider == "resend" {
		if s.ResendAPIKey == "" {
			return nil, ErrIncompleteSettings
		}
		return newResendTransport(s), nil
	}
	return newSMTPTransport(s)
}
