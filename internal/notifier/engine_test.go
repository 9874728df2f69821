package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewalhub/renewalhub/internal/mail"
	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// ----- fakes -----

type fakeServices struct {
	mu       sync.Mutex
	services map[uint64]*model.Service
	listed   chan struct{} // optional, signaled on ListActive
}

func newFakeServices(svcs ...*model.Service) *fakeServices {
	f := &fakeServices{services: map[uint64]*model.Service{}}
	for _, s := range svcs {
		f.services[s.ID] = s
	}
	return f
}

func (f *fakeServices) ListActive(ctx context.Context) ([]model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listed != nil {
		select {
		case f.listed <- struct{}{}:
		default:
		}
	}
	var out []model.Service
	for _, s := range f.services {
		if s.Status == model.StatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeServices) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.services[id]
	if !ok {
		return model.Service{}, repository.ErrNotFound
	}
	return *s, nil
}

func (f *fakeServices) AppendNotification(ctx context.Context, id uint64, thresholdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.services[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.NotificationsSent = append(s.NotificationsSent, thresholdID)
	return nil
}

type fakeSettings struct{ s model.AppSettings }

func (f *fakeSettings) Load(ctx context.Context) (model.AppSettings, error) { return f.s, nil }

type fakeLogs struct {
	mu      sync.Mutex
	entries []model.EmailLog
}

func (f *fakeLogs) Append(ctx context.Context, e model.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []string // recipient emails in send order
	fail bool
}

func (f *fakeTransport) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func newEngine(svcs *fakeServices, settings model.AppSettings, transport *fakeTransport, now time.Time) (*Engine, *fakeLogs) {
	logs := &fakeLogs{}
	return &Engine{
		Services:     svcs,
		Settings:     &fakeSettings{s: settings},
		Logs:         logs,
		NewTransport: func(model.AppSettings) (mail.Transport, error) { return transport, nil },
		Now:          func() time.Time { return now },
	}, logs
}

func thresholds307and1() []model.ReminderThreshold {
	return []model.ReminderThreshold{
		{ID: "t30", DaysBefore: 30, Label: "First reminder"},
		{ID: "t7", DaysBefore: 7, Label: "Second reminder"},
		{ID: "t1", DaysBefore: 1, Label: "Final reminder"},
	}
}

func activeService(id uint64, expiry time.Time) *model.Service {
	return &model.Service{
		ID:                 id,
		Name:               fmt.Sprintf("service-%d", id),
		Provider:           "acme",
		CategoryName:       "SaaS",
		ExpiryDate:         expiry.UTC().Format(time.RFC3339),
		ReminderThresholds: thresholds307and1(),
		ContactEmail:       "ops@example.com",
		ContactName:        "Ops",
		Status:             model.StatusActive,
		NotificationsSent:  []string{},
	}
}

// ----- tests -----

func TestDaysUntilTruncates(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// 23.9 hours out is still "0 days".
	assert.Equal(t, 0, DaysUntil(now, now.Add(23*time.Hour+54*time.Minute)))
	// Exactly one day.
	assert.Equal(t, 1, DaysUntil(now, now.Add(24*time.Hour)))
	// Already expired reports negative.
	assert.Equal(t, -1, DaysUntil(now, now.Add(-2*time.Hour)))
	assert.Equal(t, -3, DaysUntil(now, now.Add(-49*time.Hour)))
}

func TestParseExpiryFormats(t *testing.T) {
	for _, s := range []string{"2026-09-30T00:00:00Z", "2026-09-30T00:00:00+02:00", "2026-09-30T10:30:00", "2026-09-30"} {
		_, err := ParseExpiry(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"", "soon", "30/09/2026"} {
		_, err := ParseExpiry(s)
		assert.ErrorIs(t, err, ErrUnparseableExpiry, s)
	}
}

func TestSweepFiresFurthestDueThresholdOnce(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc := activeService(1, now.Add(29*24*time.Hour+2*time.Hour)) // 29 days out
	store := newFakeServices(svc)
	transport := &fakeTransport{}
	engine, logs := newEngine(store, model.DefaultSettings(), transport, now)

	require.NoError(t, engine.Sweep(context.Background()))

	assert.Equal(t, []string{"t30"}, svc.NotificationsSent)
	assert.Equal(t, []string{"ops@example.com"}, transport.sent)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, model.LogSent, logs.entries[0].Status)
	assert.Equal(t, 29, logs.entries[0].DaysUntilExpiry)

	// Second immediate sweep is idempotent: nothing new fires.
	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30"}, svc.NotificationsSent)
	assert.Len(t, transport.sent, 1)

	// Two days later still nothing (27 days out, 30 already fired).
	engine.Now = func() time.Time { return now.Add(2 * 24 * time.Hour) }
	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30"}, svc.NotificationsSent)

	// 23 days later (6 days out) the 7-day threshold fires.
	engine.Now = func() time.Time { return now.Add(23 * 24 * time.Hour) }
	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30", "t7"}, svc.NotificationsSent)
	assert.Len(t, transport.sent, 2)
}

func TestSweepAtMostOnePerServicePerSweep(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	// Overlooked service: expiry tomorrow, all three thresholds overdue.
	svc := activeService(1, now.Add(26*time.Hour))
	store := newFakeServices(svc)
	transport := &fakeTransport{}
	engine, _ := newEngine(store, model.DefaultSettings(), transport, now)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30"}, svc.NotificationsSent, "only the furthest-out threshold fires")
	assert.Len(t, transport.sent, 1)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30", "t7"}, svc.NotificationsSent)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30", "t7", "t1"}, svc.NotificationsSent)

	// Everything fired; further sweeps are quiet.
	require.NoError(t, engine.Sweep(context.Background()))
	assert.Len(t, transport.sent, 3)
}

func TestSweepTransportFailureLeavesStateForRetry(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc := activeService(1, now.Add(5*24*time.Hour))
	store := newFakeServices(svc)
	transport := &fakeTransport{fail: true}
	engine, logs := newEngine(store, model.DefaultSettings(), transport, now)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Empty(t, svc.NotificationsSent, "failed send must not be recorded")
	require.Len(t, logs.entries, 1)
	assert.Equal(t, model.LogFailed, logs.entries[0].Status)

	// Transport recovers; the same threshold fires on the next sweep.
	transport.fail = false
	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"t30"}, svc.NotificationsSent)
}

func TestSweepSkipsUnparseableDates(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	bad := activeService(1, now)
	bad.ExpiryDate = "not-a-date"
	good := activeService(2, now.Add(3*24*time.Hour))
	store := newFakeServices(bad, good)
	transport := &fakeTransport{}
	engine, _ := newEngine(store, model.DefaultSettings(), transport, now)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Empty(t, bad.NotificationsSent)
	assert.Equal(t, []string{"t30"}, good.NotificationsSent, "bad record must not abort the sweep")
}

func TestSweepGlobalFallbackThresholds(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc := activeService(1, now.Add(10*24*time.Hour))
	svc.ReminderThresholds = nil // no per-service policy
	store := newFakeServices(svc)
	transport := &fakeTransport{}

	settings := model.DefaultSettings()
	settings.NotificationThresholds = []int{14, 3}
	engine, _ := newEngine(store, settings, transport, now)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"global-14"}, svc.NotificationsSent)
}

func TestSweepSendsToEveryOwner(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc := activeService(1, now.Add(5*24*time.Hour))
	svc.Owners = []model.Owner{
		{ID: "o1", Name: "A", Email: "a@example.com", Role: "App Owner"},
		{ID: "o2", Name: "B", Email: "b@example.com", Role: "Developer"},
	}
	store := newFakeServices(svc)
	transport := &fakeTransport{}
	engine, logs := newEngine(store, model.DefaultSettings(), transport, now)

	require.NoError(t, engine.Sweep(context.Background()))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, transport.sent)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, model.LogSent, logs.entries[0].Status)
	assert.Len(t, logs.entries[0].Recipients, 2)
}

func TestManualSendIgnoresFiredSet(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc := activeService(1, now.Add(2*24*time.Hour))
	svc.NotificationsSent = []string{"t30", "t7", "t1"} // everything already fired
	store := newFakeServices(svc)
	transport := &fakeTransport{}
	engine, logs := newEngine(store, model.DefaultSettings(), transport, now)

	entry, err := engine.SendManual(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.LogSent, entry.Status)
	assert.Len(t, transport.sent, 1)
	require.Len(t, logs.entries, 1)

	// The fired set is untouched by manual sends.
	assert.Equal(t, []string{"t30", "t7", "t1"}, svc.NotificationsSent)
}

func TestManualSendUnknownService(t *testing.T) {
	store := newFakeServices()
	engine, _ := newEngine(store, model.DefaultSettings(), &fakeTransport{}, time.Now())

	_, err := engine.SendManual(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
