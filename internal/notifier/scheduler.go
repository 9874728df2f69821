package notifier

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler fires the engine's sweep once per day at a fixed wall-clock
// time, and accepts asynchronous manual triggers. It is a periodic-wake
// loop: sleep until the next occurrence, sweep, reschedule.
type Scheduler struct {
	Engine *Engine
	Hour   int // wall-clock hour of the daily sweep (server time)
	Minute int

	mu      sync.Mutex
	running bool
	trigger chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func NewScheduler(engine *Engine, hour, minute int) *Scheduler {
	return &Scheduler{Engine: engine, Hour: hour, Minute: minute}
}

// nextRun computes the next occurrence of the configured wall-clock time
// strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start launches the scheduling loop. Calling Start while already running
// replaces the existing loop instead of double-scheduling.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.stopLocked()
	}
	s.trigger = make(chan struct{}, 1)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	go s.loop(s.trigger, s.stop, s.done)
	log.Printf("notifier: scheduler started, daily expiry check at %02d:%02d", s.Hour, s.Minute)
}

// Stop halts the loop. A sweep already in flight is not interrupted, but no
// further sweeps start. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	close(s.stop)
	<-s.done
	s.running = false
}

// TriggerNow enqueues exactly one manual sweep without blocking the caller.
// If a trigger is already pending it is coalesced into it.
func (s *Scheduler) TriggerNow() {
	s.mu.Lock()
	trigger := s.trigger
	running := s.running
	s.mu.Unlock()
	if !running {
		return
	}
	select {
	case trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(trigger, stop chan struct{}, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(time.Until(s.nextRun(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.runSweep()
			timer.Reset(time.Until(s.nextRun(time.Now())))
		case <-trigger:
			s.runSweep()
		case <-stop:
			return
		}
	}
}

func (s *Scheduler) runSweep() {
	if err := s.Engine.Sweep(context.Background()); err != nil {
		log.Printf("notifier: sweep failed: %v", err)
	}
}
