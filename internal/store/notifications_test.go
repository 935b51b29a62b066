package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crmdesk/internal/logging"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

func newQueue(t *testing.T) (*store.NotificationQueue, *store.MemoryStorage) {
	t.Helper()
	storage := store.NewMemoryStorage()
	return store.NewNotificationQueue(storage, logging.Discard()), storage
}

func TestAppendDeduplicatesByID(t *testing.T) {
	q, _ := newQueue(t)

	assert.True(t, q.Append(model.Notification{ID: "task-reminder-t1", Title: "first"}))
	assert.False(t, q.Append(model.Notification{ID: "task-reminder-t1", Title: "again"}))

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "first", items[0].Title)
}

func TestAppendDeduplicatesByReminderID(t *testing.T) {
	q, _ := newQueue(t)

	assert.True(t, q.Append(model.Notification{ID: "a", ReminderID: "r1"}))
	assert.False(t, q.Append(model.Notification{ID: "b", ReminderID: " r1 "}))

	assert.Len(t, q.Items(), 1)
}

func TestAppendIsNewestFirst(t *testing.T) {
	q, _ := newQueue(t)

	q.Append(model.Notification{ID: "older"})
	q.Append(model.Notification{ID: "newer"})

	items := q.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "newer", items[0].ID)
	assert.Equal(t, "older", items[1].ID)
}

func TestAppendOpensQueue(t *testing.T) {
	q, _ := newQueue(t)

	assert.False(t, q.IsOpen())
	q.Append(model.Notification{ID: "n1"})
	assert.True(t, q.IsOpen())
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	q, _ := newQueue(t)

	q.Append(model.Notification{ID: "n1"})
	q.Append(model.Notification{ID: "n2"})
	q.Append(model.Notification{ID: "n3"})
	assert.Equal(t, 3, q.UnreadCount())

	q.MarkRead("n2")
	assert.Equal(t, 2, q.UnreadCount())

	// Marking read is idempotent and there is no way back to unread.
	q.MarkRead("n2")
	assert.Equal(t, 2, q.UnreadCount())

	q.MarkAllRead()
	assert.Equal(t, 0, q.UnreadCount())
}

func TestQueueSurvivesRestart(t *testing.T) {
	storage := store.NewMemoryStorage()
	q := store.NewNotificationQueue(storage, logging.Discard())

	q.Append(model.Notification{ID: "n1", TaskID: "t1"})
	q.MarkRead("n1")

	fresh := store.NewNotificationQueue(storage, logging.Discard())
	fresh.Restore(nil)

	items := fresh.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
	assert.True(t, items[0].Read)
}

func TestRestoreFiltersWhenAskedAndFailsOpenOtherwise(t *testing.T) {
	storage := store.NewMemoryStorage()
	q := store.NewNotificationQueue(storage, logging.Discard())
	q.Append(model.Notification{ID: "mine", TaskID: "t1"})
	q.Append(model.Notification{ID: "theirs", TaskID: "t2"})

	filtered := store.NewNotificationQueue(storage, logging.Discard())
	filtered.Restore(func(n model.Notification) bool { return n.TaskID == "t1" })
	require.Len(t, filtered.Items(), 1)
	assert.Equal(t, "mine", filtered.Items()[0].ID)

	// nil filter is the fail-open path: keep everything.
	open := store.NewNotificationQueue(storage, logging.Discard())
	open.Restore(nil)
	assert.Len(t, open.Items(), 2)
}

func TestRestoreCorruptDataIsEmpty(t *testing.T) {
	q, storage := newQueue(t)

	require.NoError(t, storage.Set(store.KeyNotifications, []byte("][")))
	q.Restore(nil)

	assert.Empty(t, q.Items())
}

func TestClearAllRemovesPersistedKey(t *testing.T) {
	q, storage := newQueue(t)

	q.Append(model.Notification{ID: "n1"})
	q.Append(model.Notification{ID: "n2"})

	q.ClearAll()

	assert.Empty(t, q.Items())
	assert.Equal(t, 0, q.UnreadCount())
	assert.False(t, q.IsOpen())

	_, ok, err := storage.Get(store.KeyNotifications)
	require.NoError(t, err)
	assert.False(t, ok, "persisted notifications must not survive logout")
}
