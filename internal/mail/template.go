package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/renewalhub/renewalhub/internal/model"
)

// Urgency is the visual tier of a reminder. It drives subject line and
// colors only, never the firing decision.
type Urgency string

const (
	UrgencyUrgent   Urgency = "urgent"   // <= 1 day left (or overdue)
	UrgencyWarning  Urgency = "warning"  // <= 7 days left
	UrgencyReminder Urgency = "reminder" // anything further out
)

// UrgencyFor maps days-until-expiry onto a tier.
func UrgencyFor(daysUntil int) Urgency {
	switch {
	case daysUntil <= 1:
		return UrgencyUrgent
	case daysUntil <= 7:
		return UrgencyWarning
	default:
		return UrgencyReminder
	}
}

func (u Urgency) color() string {
	switch u {
	case UrgencyUrgent:
		return "#ef4444"
	case UrgencyWarning:
		return "#f59e0b"
	default:
		return "#06b6d4"
	}
}

// Subject builds the reminder subject for a service at the given urgency.
func Subject(serviceName string, daysUntil int) string {
	switch {
	case daysUntil <= 0:
		return fmt.Sprintf("URGENT: Service %q expires TODAY!", serviceName)
	case daysUntil <= 1:
		return fmt.Sprintf("URGENT: Service %q expires TOMORROW!", serviceName)
	case daysUntil <= 7:
		return fmt.Sprintf("WARNING: Service %q expires in %d days!", serviceName, daysUntil)
	default:
		return fmt.Sprintf("Reminder: Service %q is Expiring Soon!", serviceName)
	}
}

// RenderReminder produces the HTML body for an expiry reminder addressed to
// one recipient.
func RenderReminder(svc model.Service, recipientName string, daysUntil int, companyName string) string {
	u := UrgencyFor(daysUntil)
	color := u.color()

	expiring := fmt.Sprintf("expiring in %d day(s)", daysUntil)
	if daysUntil <= 0 {
		expiring = "expiring TODAY"
	}
	if recipientName = strings.TrimSpace(recipientName); recipientName == "" {
		recipientName = "Team"
	}
	expiryDate := svc.ExpiryDate
	if len(expiryDate) > 10 {
		expiryDate = expiryDate[:10]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html><html><body style="margin:0;padding:0;background:#0a0a0b;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;">`)
	fmt.Fprintf(&b, `<table role="presentation" width="100%%" cellspacing="0" cellpadding="0"><tr><td align="center" style="padding:40px 20px;">`)
	fmt.Fprintf(&b, `<table role="presentation" width="600" style="max-width:600px;background:#121214;border-radius:8px;overflow:hidden;">`)
	fmt.Fprintf(&b, `<tr><td style="padding:32px 40px;border-bottom:1px solid #27272a;">`)
	fmt.Fprintf(&b, `<span style="color:%s;font-size:12px;font-weight:600;text-transform:uppercase;letter-spacing:1px;">%s</span>`, color, strings.ToUpper(string(u)))
	fmt.Fprintf(&b, `<h1 style="margin:8px 0 0;color:#fafafa;font-size:24px;">Service %s!</h1></td></tr>`, expiring)
	fmt.Fprintf(&b, `<tr><td style="padding:40px;color:#a1a1aa;font-size:16px;line-height:1.6;">`)
	fmt.Fprintf(&b, `<p>Dear %s,</p><p>This is a reminder that the service <strong style="color:#fafafa;">%s</strong> is %s.</p>`, recipientName, svc.Name, expiring)
	fmt.Fprintf(&b, `<table role="presentation" width="100%%" style="background:#1a1a1c;border-radius:6px;border-left:4px solid %s;"><tr><td style="padding:24px;font-size:14px;">`, color)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><span style="color:#71717a;">Service:</span> <span style="color:#fafafa;">%s</span></p>`, svc.Name)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><span style="color:#71717a;">Provider:</span> <span style="color:#fafafa;">%s</span></p>`, svc.Provider)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><span style="color:#71717a;">Category:</span> <span style="color:#fafafa;">%s</span></p>`, svc.CategoryName)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><span style="color:#71717a;">Expiry Date:</span> <span style="color:%s;font-weight:700;">%s</span></p>`, color, expiryDate)
	fmt.Fprintf(&b, `<p style="margin:4px 0;"><span style="color:#71717a;">Days Remaining:</span> <span style="color:%s;font-weight:700;">%d day(s)</span></p>`, color, daysUntil)
	fmt.Fprintf(&b, `</td></tr></table>`)
	fmt.Fprintf(&b, `<p>Please take action to renew or contact the service provider as soon as possible to avoid any service interruption.</p></td></tr>`)
	fmt.Fprintf(&b, `<tr><td style="background:#0a0a0b;padding:24px 40px;border-top:1px solid #27272a;text-align:center;">`)
	fmt.Fprintf(&b, `<p style="margin:0;color:#a1a1aa;font-size:14px;">The %s Service Management Team</p>`, companyName)
	fmt.Fprintf(&b, `<p style="margin:8px 0 0;color:#52525b;font-size:12px;">This is an automated notification from Service Renewal Hub</p>`)
	fmt.Fprintf(&b, `</td></tr></table></td></tr></table></body></html>`)
	return b.String()
}

// RenderTestEmail produces the body for the admin "test my settings" mail.
func RenderTestEmail(s model.AppSettings) string {
	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;padding:20px;background:#121214;color:#fafafa;">
<h2 style="color:%s;">Email Configuration Test</h2>
<p>This is a test email from %s.</p>
<p>If you received this email, your email settings are configured correctly!</p>
<hr style="border-color:#27272a;">
<p style="color:#71717a;font-size:12px;">Provider: %s<br>Sent at: %s</p>
</div>`,
		s.PrimaryColor, s.CompanyName, strings.ToUpper(s.EmailProvider),
		time.Now().UTC().Format(time.RFC3339))
}
