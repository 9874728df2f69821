// Package notifier contains the expiry notification engine and its daily
// scheduler. One sweep walks every active service, decides which reminder
// threshold (if any) fires, sends the email and records the firing so it is
// never repeated for the same threshold.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/renewalhub/renewalhub/internal/mail"
	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/queue"
)

// ServiceSource is the slice of the service repository the engine needs.
type ServiceSource interface {
	ListActive(ctx context.Context) ([]model.Service, error)
	GetByID(ctx context.Context, id uint64) (model.Service, error)
	AppendNotification(ctx context.Context, id uint64, thresholdID string) error
}

// SettingsSource loads the global settings record. The engine reads it
// fresh on every sweep so admin edits apply on the next run.
type SettingsSource interface {
	Load(ctx context.Context) (model.AppSettings, error)
}

// LogSink receives one append-only record per send attempt.
type LogSink interface {
	Append(ctx context.Context, e model.EmailLog) error
}

// TransportFactory builds a mail transport for the given settings. Swapped
// for a fake in tests.
type TransportFactory func(model.AppSettings) (mail.Transport, error)

// EventPublisher receives a reminder.sent event after a successful send.
// Failures inside the publisher must not affect the sweep.
type EventPublisher func(ctx context.Context, ev queue.ReminderSentEvent)

// ErrUnparseableExpiry marks a service whose expiry date cannot be read.
// During a sweep the service is skipped; the manual trigger propagates it.
var ErrUnparseableExpiry = errors.New("unparseable expiry date")

// ErrNoRecipients marks a service with neither owners nor a legacy contact.
var ErrNoRecipients = errors.New("service has no recipients")

// Engine performs the expiry sweep. Now is injectable for deterministic
// tests and defaults to the wall clock.
type Engine struct {
	Services     ServiceSource
	Settings     SettingsSource
	Logs         LogSink
	NewTransport TransportFactory
	Publish      EventPublisher // optional
	Now          func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// expiryFormats accepted for service expiry dates: zone-aware RFC 3339,
// naive datetime, bare date. Naive values are taken as UTC.
var expiryFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseExpiry turns a stored expiry string into an absolute instant.
func ParseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrUnparseableExpiry
	}
	for _, layout := range expiryFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableExpiry, s)
}

// DaysUntil is the floored whole-day difference: a service expiring in 23.9
// hours reports 0 days, one that expired two hours ago reports -1.
func DaysUntil(now, expiry time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}

// effectiveThresholds returns the list the sweep evaluates for a service:
// its own thresholds when it has any, else the global fallback with
// synthesized stable ids, sorted descending so the furthest-out reminder is
// considered first.
func effectiveThresholds(svc model.Service, settings model.AppSettings) []model.ReminderThreshold {
	var ts []model.ReminderThreshold
	if len(svc.ReminderThresholds) > 0 {
		ts = append(ts, svc.ReminderThresholds...)
	} else {
		for _, days := range settings.NotificationThresholds {
			ts = append(ts, model.ReminderThreshold{
				ID:         fmt.Sprintf("global-%d", days),
				DaysBefore: days,
				Label:      fmt.Sprintf("%d-day reminder", days),
			})
		}
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].DaysBefore > ts[j].DaysBefore })
	return ts
}

// Sweep runs one full pass over all active services. Per-service failures
// (bad dates, transport errors) are logged and skipped; nothing here aborts
// the batch.
func (e *Engine) Sweep(ctx context.Context) error {
	log.Printf("notifier: running expiry check")

	settings, err := e.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	transport, err := e.NewTransport(settings)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}
	services, err := e.Services.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}

	now := e.now()
	for _, svc := range services {
		expiry, err := ParseExpiry(svc.ExpiryDate)
		if err != nil {
			log.Printf("notifier: skipping service %d (%s): %v", svc.ID, svc.Name, err)
			continue
		}
		daysUntil := DaysUntil(now, expiry)

		// At most one threshold fires per service per sweep: the first
		// unfired one in descending days_before order that is due.
		var fired *model.ReminderThreshold
		for _, t := range effectiveThresholds(svc, settings) {
			if daysUntil <= t.DaysBefore && !svc.HasFired(t.ID) {
				fired = &t
				break
			}
		}
		if fired == nil {
			continue
		}

		entry, err := e.deliver(ctx, transport, settings, svc, *fired, daysUntil)
		if err != nil {
			log.Printf("notifier: service %d (%s): %v", svc.ID, svc.Name, err)
			continue
		}
		if entry.Status == model.LogFailed {
			// Left out of notifications_sent so the threshold is retried
			// on the next sweep.
			log.Printf("notifier: all recipients failed for service %d (%s)", svc.ID, svc.Name)
			continue
		}
		if err := e.Services.AppendNotification(ctx, svc.ID, fired.ID); err != nil {
			log.Printf("notifier: record notification for service %d: %v", svc.ID, err)
			continue
		}
		log.Printf("notifier: sent %d-day notification for %s", fired.DaysBefore, svc.Name)
	}

	log.Printf("notifier: expiry check completed")
	return nil
}

// SendManual sends a reminder for one service right now, regardless of what
// has fired before. It never consults or mutates notifications_sent.
func (e *Engine) SendManual(ctx context.Context, serviceID uint64) (model.EmailLog, error) {
	svc, err := e.Services.GetByID(ctx, serviceID)
	if err != nil {
		return model.EmailLog{}, err
	}
	expiry, err := ParseExpiry(svc.ExpiryDate)
	if err != nil {
		return model.EmailLog{}, err
	}
	settings, err := e.Settings.Load(ctx)
	if err != nil {
		return model.EmailLog{}, err
	}
	transport, err := e.NewTransport(settings)
	if err != nil {
		return model.EmailLog{}, err
	}
	daysUntil := DaysUntil(e.now(), expiry)
	return e.deliver(ctx, transport, settings, svc, model.ReminderThreshold{Label: "Manual reminder"}, daysUntil)
}

// deliver renders and sends the reminder to every recipient of the service,
// appends the log entry and publishes the reminder.sent event. The returned
// entry's status is sent/partial/failed depending on how many recipients
// accepted.
func (e *Engine) deliver(ctx context.Context, transport mail.Transport, settings model.AppSettings,
	svc model.Service, threshold model.ReminderThreshold, daysUntil int) (model.EmailLog, error) {

	recipients := svc.Recipients()
	if len(recipients) == 0 {
		return model.EmailLog{}, fmt.Errorf("%w: service %d", ErrNoRecipients, svc.ID)
	}

	subject := mail.Subject(svc.Name, daysUntil)
	sent := 0
	results := make([]model.RecipientResult, 0, len(recipients))
	for _, rcpt := range recipients {
		html := mail.RenderReminder(svc, rcpt.Name, daysUntil, settings.CompanyName)
		res := model.RecipientResult{Email: rcpt.Email, Name: rcpt.Name, Status: "sent"}
		if err := transport.Send(ctx, rcpt.Email, rcpt.Name, subject, html); err != nil {
			log.Printf("notifier: send to %s failed: %v", rcpt.Email, err)
			res.Status = "failed"
		} else {
			sent++
		}
		results = append(results, res)
	}

	status := model.LogSent
	switch {
	case sent == 0:
		status = model.LogFailed
	case sent < len(recipients):
		status = model.LogPartial
	}

	entry := model.EmailLog{
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ThresholdID:     threshold.ID,
		ThresholdLabel:  threshold.Label,
		DaysUntilExpiry: daysUntil,
		Recipients:      results,
		Status:          status,
		SentAt:          e.now(),
	}
	if err := e.Logs.Append(ctx, entry); err != nil {
		log.Printf("notifier: append email log: %v", err)
	}

	if status != model.LogFailed && e.Publish != nil {
		e.Publish(ctx, queue.ReminderSentEvent{
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			ThresholdLabel:  threshold.Label,
			DaysUntilExpiry: daysUntil,
			Recipients:      sent,
			Status:          string(status),
			SentAt:          entry.SentAt.Format(time.RFC3339),
		})
	}
	return entry, nil
}
