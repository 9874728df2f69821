package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewalhub/renewalhub/internal/model"
)

func TestNextRun(t *testing.T) {
	s := &Scheduler{Hour: 9, Minute: 0}

	// Before today's slot: fires today.
	now := time.Date(2026, 8, 28, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC), s.nextRun(now))

	// After today's slot: fires tomorrow.
	now = time.Date(2026, 8, 28, 9, 0, 1, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), s.nextRun(now))

	// Exactly at the slot counts as passed.
	now = time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), s.nextRun(now))
}

func TestTriggerNowRunsOneSweep(t *testing.T) {
	store := newFakeServices()
	store.listed = make(chan struct{}, 4)
	engine, _ := newEngine(store, model.DefaultSettings(), &fakeTransport{}, time.Now())

	// Schedule far enough away that only the manual trigger can fire.
	s := NewScheduler(engine, 23, 59)
	s.Start()
	defer s.Stop()

	s.TriggerNow()
	select {
	case <-store.listed:
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not run a sweep")
	}
}

func TestTriggerNowAfterStopIsNoop(t *testing.T) {
	store := newFakeServices()
	store.listed = make(chan struct{}, 4)
	engine, _ := newEngine(store, model.DefaultSettings(), &fakeTransport{}, time.Now())

	s := NewScheduler(engine, 23, 59)
	s.Start()
	s.Stop()

	s.TriggerNow() // must not panic or block
	select {
	case <-store.listed:
		t.Fatal("sweep ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartIsIdempotent(t *testing.T) {
	store := newFakeServices()
	store.listed = make(chan struct{}, 8)
	engine, _ := newEngine(store, model.DefaultSettings(), &fakeTransport{}, time.Now())

	s := NewScheduler(engine, 23, 59)
	s.Start()
	s.Start() // replaces the first loop
	defer s.Stop()

	s.TriggerNow()
	select {
	case <-store.listed:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger lost after restart")
	}

	// Only one loop serves triggers, so exactly one sweep happened.
	require.Len(t, store.listed, 0)
}
