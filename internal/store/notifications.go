package store

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/model"
)

// NotificationQueue is the single ordered, de-duplicated list of
// notifications shown to the user, fed by both the local reminder scanner
// and the backend poller. Insertion order is newest-first for display;
// identity (not position) decides de-duplication.
//
// Every mutation persists the full collection immediately. Storage
// failures are logged and the in-memory copy stays authoritative.
type NotificationQueue struct {
	mu      sync.Mutex
	storage Storage
	log     *logrus.Logger
	items   []model.Notification
	open    bool
}

// NewNotificationQueue creates an empty queue over the given storage.
// Call Restore to repopulate it from a previous session.
func NewNotificationQueue(storage Storage, log *logrus.Logger) *NotificationQueue {
	return &NotificationQueue{storage: storage, log: log}
}

// Append inserts the notification at the front of the queue unless an
// entry with the same identity already exists. Returns whether the entry
// was added. New entries make the queue visible.
func (q *NotificationQueue) Append(n model.Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, existing := range q.items {
		if existing.Matches(n) {
			return false
		}
	}

	q.items = append([]model.Notification{n}, q.items...)
	q.open = true
	q.persistLocked()
	return true
}

// MarkRead marks a single notification as read.
func (q *NotificationQueue) MarkRead(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Read = true
			break
		}
	}
	q.persistLocked()
}

// MarkAllRead marks every notification as read.
func (q *NotificationQueue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		q.items[i].Read = true
	}
	q.persistLocked()
}

// UnreadCount returns the number of unread notifications. The value is
// recomputed on demand rather than cached.
func (q *NotificationQueue) UnreadCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, n := range q.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Items returns a copy of the queue, newest first.
func (q *NotificationQueue) Items() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]model.Notification, len(q.items))
	copy(out, q.items)
	return out
}

// SetOpen marks the queue popup as visible or hidden.
func (q *NotificationQueue) SetOpen(open bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open = open
}

// IsOpen reports whether the queue popup should be visible.
func (q *NotificationQueue) IsOpen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.open
}

// Restore reloads the persisted queue from storage. When keep is non-nil
// it filters entries to those relevant to the current session; a nil
// filter keeps everything, which is the fail-open path callers take when
// the user lookup itself failed. Absent or corrupt data restores empty.
func (q *NotificationQueue) Restore(keep func(model.Notification) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	raw, ok, err := q.storage.Get(KeyNotifications)
	if err != nil {
		q.log.WithError(err).Warn("notification queue: read failed, restoring empty")
		q.items = nil
		return
	}
	if !ok {
		q.items = nil
		return
	}

	var items []model.Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		q.log.WithError(err).Warn("notification queue: corrupt cache, restoring empty")
		q.items = nil
		return
	}

	if keep != nil {
		kept := items[:0]
		for _, n := range items {
			if keep(n) {
				kept = append(kept, n)
			}
		}
		items = kept
	}
	q.items = items
}

// ClearAll wipes the queue, in memory and on disk. Invoked on logout:
// notification content must not survive a session change on a shared
// device.
func (q *NotificationQueue) ClearAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	q.open = false
	if err := q.storage.Delete(KeyNotifications); err != nil {
		q.log.WithError(err).Warn("notification queue: clearing persisted key failed")
	}
}

func (q *NotificationQueue) persistLocked() {
	raw, err := json.Marshal(q.items)
	if err != nil {
		q.log.WithError(err).Error("notification queue: marshal failed, not persisted")
		return
	}
	if err := q.storage.Set(KeyNotifications, raw); err != nil {
		q.log.WithError(err).Warn("notification queue: write failed, continuing in memory")
	}
}
