package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crmdesk/internal/logging"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

func newTaskStore(t *testing.T) (*store.TaskStore, *store.MemoryStorage) {
	t.Helper()
	storage := store.NewMemoryStorage()
	return store.NewTaskStore(storage, logging.Discard()), storage
}

func TestTaskStoreLoadEmpty(t *testing.T) {
	s, _ := newTaskStore(t)
	assert.Empty(t, s.Load())
}

func TestTaskStoreSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTaskStore(t)

	tasks := []model.Task{
		{ID: "t1", Title: "Call vendor", AssignedTo: "alice", Status: model.StatusNotStarted},
		{ID: "t2", Title: "Send quote", AssignedTo: "bob", Priority: model.PriorityHigh},
	}
	s.Save(tasks)

	got := s.Load()
	require.Len(t, got, 2)
	assert.Equal(t, tasks, got)
}

func TestTaskStoreCorruptDataLoadsEmpty(t *testing.T) {
	s, storage := newTaskStore(t)

	require.NoError(t, storage.Set(store.KeyTasks, []byte("{not json")))

	// Must fail soft, not panic or error.
	assert.Empty(t, s.Load())
}

func TestTaskStoreReplaceFromServer(t *testing.T) {
	s, _ := newTaskStore(t)

	s.Save([]model.Task{
		{ID: "t1", Title: "stale title"},
		{ID: "t2", Title: "deleted on server"},
	})

	got := s.ReplaceFromServer([]model.Task{
		{ID: "t1", Title: "fresh title"},
		{ID: "t3", Title: "new on server"},
	})

	require.Len(t, got, 2)
	reloaded := s.Load()
	require.Len(t, reloaded, 2)
	assert.Equal(t, "fresh title", reloaded[0].Title)
	assert.Equal(t, "t3", reloaded[1].ID)
}

func TestTaskStoreUpsertReconcilesByIdentity(t *testing.T) {
	s, _ := newTaskStore(t)

	s.Upsert(model.Task{ID: "t1", Title: "first"})
	s.Upsert(model.Task{ID: "t1", Title: "second"})
	s.Upsert(model.Task{ID: "t2", Title: "other"})

	got := s.Load()
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
}

func TestTaskStoreDelete(t *testing.T) {
	s, _ := newTaskStore(t)

	s.Save([]model.Task{{ID: "t1"}, {ID: "t2"}})
	s.Delete("t1")

	got := s.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].ID)
}
