package store

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/model"
)

// TaskStore is the durable client-local cache of the task collection. It
// is the source the reminder scanner reads every tick, and the fallback
// the task service serves when the server is unreachable.
//
// All mutation goes through load-entire/mutate/save-entire; storage
// failures are logged and swallowed so callers keep working on the best
// in-memory copy available.
type TaskStore struct {
	mu      sync.Mutex
	storage Storage
	log     *logrus.Logger
}

// NewTaskStore creates a TaskStore over the given storage backend.
func NewTaskStore(storage Storage, log *logrus.Logger) *TaskStore {
	return &TaskStore{storage: storage, log: log}
}

// Load reads the persisted task collection. An absent key or corrupt JSON
// yields an empty slice, never an error.
func (s *TaskStore) Load() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *TaskStore) loadLocked() []model.Task {
	raw, ok, err := s.storage.Get(KeyTasks)
	if err != nil {
		s.log.WithError(err).Warn("task store: read failed, treating as empty")
		return nil
	}
	if !ok {
		return nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		s.log.WithError(err).Warn("task store: corrupt cache, treating as empty")
		return nil
	}
	return tasks
}

// Save overwrites the persisted collection entirely. Called after every
// successful create, update, delete, or scan mutation so the scanner
// always observes the latest state.
func (s *TaskStore) Save(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(tasks)
}

func (s *TaskStore) saveLocked(tasks []model.Task) {
	raw, err := json.Marshal(tasks)
	if err != nil {
		s.log.WithError(err).Error("task store: marshal failed, cache not updated")
		return
	}
	if err := s.storage.Set(KeyTasks, raw); err != nil {
		s.log.WithError(err).Warn("task store: write failed, continuing in memory")
	}
}

// ReplaceFromServer makes a successful full server fetch authoritative:
// the returned set replaces the local set for both existence and field
// values. Tasks absent from the server result are dropped.
func (s *TaskStore) ReplaceFromServer(serverTasks []model.Task) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(serverTasks)
	return serverTasks
}

// Upsert reconciles a single task into the collection by identity,
// replacing an existing entry with the same ID or appending a new one.
func (s *TaskStore) Upsert(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadLocked()
	replaced := false
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, t)
	}
	s.saveLocked(tasks)
}

// Delete removes the task with the given ID, if present.
func (s *TaskStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadLocked()
	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.saveLocked(kept)
}
