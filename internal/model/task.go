package model

import (
	"fmt"
	"strings"
	"time"
)

// Task status values as the CRM server reports them.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Task priority values.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Date and time-of-day layouts used by the CRM API for task fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// localIDPrefix marks identifiers generated on this device before the
// server has assigned one.
const localIDPrefix = "local-"

// Task is a CRM task as cached locally. IDs are either server-assigned
// or generated via NewLocalID; exactly one form is authoritative at a
// time, and callers reconcile by identity rather than object equality.
type Task struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssignedTo  string `json:"assignedTo"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate,omitempty"`
	RelatedTo   string `json:"relatedTo,omitempty"`

	// ReminderDate and ReminderTime together define when the reminder
	// fires. ReminderNotified flips to true after the first fire so a
	// reminder never fires twice.
	ReminderDate     string `json:"reminderDate,omitempty"`
	ReminderTime     string `json:"reminderTime,omitempty"`
	ReminderNotified bool   `json:"reminderNotified"`
}

// NewLocalID returns a device-local task identifier, used when a task is
// created while the server is unreachable.
func NewLocalID() string {
	return fmt.Sprintf("%s%d", localIDPrefix, time.Now().UnixMilli())
}

// IsLocal reports whether the task carries a device-local identifier that
// the server has not replaced yet.
func (t Task) IsLocal() bool {
	return strings.HasPrefix(t.ID, localIDPrefix)
}

// HasReminder reports whether both reminder fields are set.
func (t Task) HasReminder() bool {
	return t.ReminderDate != "" && t.ReminderTime != ""
}

// Armed reports whether the reminder is eligible to fire: both fields set
// and not yet notified.
func (t Task) Armed() bool {
	return t.HasReminder() && !t.ReminderNotified
}

// ReminderAt combines ReminderDate and ReminderTime into a single local
// timestamp. Returns an error if either field is malformed.
func (t Task) ReminderAt() (time.Time, error) {
	if !t.HasReminder() {
		return time.Time{}, fmt.Errorf("task %s has no reminder configured", t.ID)
	}
	at, err := time.ParseInLocation(
		DateLayout+" "+TimeLayout,
		t.ReminderDate+" "+t.ReminderTime,
		time.Local,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing reminder for task %s: %w", t.ID, err)
	}
	return at, nil
}

// DueBefore reports whether the task's due date has passed as of now.
// The date parses to local midnight, so a task due today is overdue for
// the whole day. Tasks with no due date, or an unparseable one, are
// never overdue.
func (t Task) DueBefore(now time.Time) bool {
	if t.DueDate == "" {
		return false
	}
	due, err := time.ParseInLocation(DateLayout, t.DueDate, time.Local)
	if err != nil {
		return false
	}
	return due.Before(now)
}
