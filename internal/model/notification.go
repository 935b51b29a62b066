package model

import (
	"strings"
	"time"
)

// taskReminderPrefix builds the deterministic identity for notifications
// produced by the local reminder scanner.
const taskReminderPrefix = "task-reminder-"

// Notification is a single entry in the notification queue. Entries are
// produced either by the local reminder scanner (ID derived from the task)
// or by the backend poller (ID taken from the server-side reminder).
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`

	// TaskID and ReminderID are non-owning back-references used for
	// lookups and de-duplication; either may be empty.
	TaskID     string `json:"taskId,omitempty"`
	ReminderID string `json:"reminderId,omitempty"`
}

// TaskReminderID returns the scanner-sourced notification identity for
// the given task.
func TaskReminderID(taskID string) string {
	return taskReminderPrefix + taskID
}

// NormalizeReminderID canonicalizes a server reminder id for comparison.
func NormalizeReminderID(id string) string {
	return strings.TrimSpace(id)
}

// Matches reports whether two notifications represent the same underlying
// reminder: equal ids, or equal normalized reminder ids. Producers must
// check both forms before appending to the queue.
func (n Notification) Matches(other Notification) bool {
	if n.ID != "" && n.ID == other.ID {
		return true
	}
	a := NormalizeReminderID(n.ReminderID)
	b := NormalizeReminderID(other.ReminderID)
	return a != "" && a == b
}

// NewTaskReminder builds the notification fired by the scanner for an
// armed task whose reminder time has passed.
func NewTaskReminder(t Task, now time.Time) Notification {
	return Notification{
		ID:        TaskReminderID(t.ID),
		Title:     "Task reminder",
		Message:   "Reminder: " + t.Title,
		Timestamp: now.Format(time.RFC3339),
		TaskID:    t.ID,
	}
}
