package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArmed(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "date and time set, not notified",
			task: Task{ReminderDate: "2026-09-01", ReminderTime: "09:30"},
			want: true,
		},
		{
			name: "already notified",
			task: Task{ReminderDate: "2026-09-01", ReminderTime: "09:30", ReminderNotified: true},
			want: false,
		},
		{
			name: "missing time",
			task: Task{ReminderDate: "2026-09-01"},
			want: false,
		},
		{
			name: "missing date",
			task: Task{ReminderTime: "09:30"},
			want: false,
		},
		{
			name: "no reminder at all",
			task: Task{Title: "plain task"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Armed())
		})
	}
}

func TestReminderAt(t *testing.T) {
	task := Task{ID: "t1", ReminderDate: "2026-09-01", ReminderTime: "09:30"}

	at, err := task.ReminderAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 30, 0, 0, time.Local), at)
}

func TestReminderAtMalformed(t *testing.T) {
	tests := []struct {
		name string
		task Task
	}{
		{"bad date", Task{ID: "t1", ReminderDate: "not-a-date", ReminderTime: "09:30"}},
		{"bad time", Task{ID: "t1", ReminderDate: "2026-09-01", ReminderTime: "25:99"}},
		{"unconfigured", Task{ID: "t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.task.ReminderAt()
			assert.Error(t, err)
		})
	}
}

func TestDueBefore(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)

	assert.True(t, Task{DueDate: "2026-08-29"}.DueBefore(now))
	assert.False(t, Task{DueDate: "2026-08-31"}.DueBefore(now))
	assert.False(t, Task{}.DueBefore(now))
	assert.False(t, Task{DueDate: "garbage"}.DueBefore(now))

	// A date-only due date is midnight, so due today means overdue all day.
	assert.True(t, Task{DueDate: "2026-08-30"}.DueBefore(now))
	assert.False(t, Task{DueDate: "2026-08-30"}.DueBefore(
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.Local)))
}

func TestLocalIDs(t *testing.T) {
	id := NewLocalID()
	assert.True(t, strings.HasPrefix(id, "local-"))
	assert.True(t, Task{ID: id}.IsLocal())
	assert.False(t, Task{ID: "64f1c0ffee"}.IsLocal())
}
