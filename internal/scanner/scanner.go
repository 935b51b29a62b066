// Package scanner implements the periodic reminder evaluation over the
// locally cached task collection.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/bus"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

// EventReminderFired is published on the bus each time an armed reminder
// fires. The payload is a ReminderFired value.
const EventReminderFired = "task.reminder.fired"

// ReminderFired carries the notification built for a newly due reminder.
type ReminderFired struct {
	Notification model.Notification
}

// DefaultInterval is how often the scanner ticks when not configured.
const DefaultInterval = 15 * time.Second

// UserFunc resolves the currently authenticated user. Reminders only fire
// for tasks assigned to that user.
type UserFunc func(ctx context.Context) (*model.User, error)

// Scanner periodically evaluates every armed task in the store and fires
// notifications for those whose reminder time has passed. Ticks are
// serialized by a mutex so a long tick never races the next one over the
// read-evaluate-write sequence.
type Scanner struct {
	tasks    *store.TaskStore
	bus      *bus.Bus
	user     UserFunc
	interval time.Duration
	log      *logrus.Logger

	// now is swappable for tests.
	now func() time.Time

	tickMu  sync.Mutex
	stateMu sync.Mutex
	stopCh  chan struct{}
	running bool
}

// New creates a Scanner. A non-positive interval falls back to
// DefaultInterval.
func New(tasks *store.TaskStore, b *bus.Bus, user UserFunc, interval time.Duration, log *logrus.Logger) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{
		tasks:    tasks,
		bus:      b,
		user:     user,
		interval: interval,
		log:      log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the scan loop: one immediate tick, then one per interval
// until Stop is called. Calling Start twice is a no-op.
func (s *Scanner) Start() {
	s.stateMu.Lock()
	if s.running {
		s.stateMu.Unlock()
		return
	}
	s.running = true
	s.stateMu.Unlock()

	go s.loop()
}

// Stop halts the scan loop. In-flight ticks finish normally.
func (s *Scanner) Stop() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *Scanner) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(context.Background())

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Tick(context.Background())
		}
	}
}

// Tick runs one full scan: fire due reminders for the current user's
// tasks, then clear reminder state from overdue tasks, and persist the
// collection if anything changed. A malformed date on one task skips that
// task only.
func (s *Scanner) Tick(ctx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	now := s.now()

	var username string
	user, err := s.user(ctx)
	if err != nil {
		// Without an identity we cannot scope firing, so nothing
		// fires this tick; overdue cleanup below still applies.
		s.log.WithError(err).Debug("scanner: user lookup failed, skipping reminder firing")
	} else {
		username = user.Name
	}

	tasks := s.tasks.Load()
	mutated := false

	for i := range tasks {
		t := &tasks[i]
		if username == "" || t.AssignedTo != username || !t.Armed() {
			continue
		}

		at, err := t.ReminderAt()
		if err != nil {
			s.log.WithError(err).WithField("task", t.ID).Warn("scanner: skipping task with malformed reminder")
			continue
		}
		if at.After(now) {
			continue
		}

		n := model.NewTaskReminder(*t, now)
		t.ReminderNotified = true
		mutated = true

		s.log.WithFields(logrus.Fields{
			"task":         t.ID,
			"notification": n.ID,
		}).Info("scanner: reminder fired")
		s.bus.Publish(EventReminderFired, ReminderFired{Notification: n})
	}

	// A task whose due date has passed can no longer remind, regardless
	// of assignee. Clearing also resets the notified flag so a stale
	// reminder cannot re-fire if the due date is later pushed back.
	for i := range tasks {
		t := &tasks[i]
		if !t.DueBefore(now) {
			continue
		}
		if t.ReminderDate == "" && t.ReminderTime == "" && !t.ReminderNotified {
			continue
		}
		t.ReminderDate = ""
		t.ReminderTime = ""
		t.ReminderNotified = false
		mutated = true
	}

	if mutated {
		s.tasks.Save(tasks)
	}
}

// SetNowFunc overrides the scanner's clock. Tests only.
func (s *Scanner) SetNowFunc(now func() time.Time) {
	s.now = now
}
