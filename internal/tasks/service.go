// Package tasks mirrors task CRUD against the CRM server into the local
// cache, with an offline fallback for creation.
package tasks

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

// Service wraps the remote task endpoints. Every successful mutation is
// mirrored into the TaskStore so the reminder scanner always sees the
// latest state, and reads degrade to the cache when the server is away.
type Service struct {
	client *api.Client
	store  *store.TaskStore
	log    *logrus.Logger
}

// NewService creates a task service over the given client and cache.
func NewService(client *api.Client, s *store.TaskStore, log *logrus.Logger) *Service {
	return &Service{client: client, store: s, log: log}
}

// Refresh fetches the full collection from the server and replaces the
// cache with it. On failure the cached copy is returned alongside the
// error so callers can keep rendering while surfacing the problem.
func (s *Service) Refresh(ctx context.Context) ([]model.Task, error) {
	serverTasks, err := s.client.GetTasks(ctx)
	if err != nil {
		s.log.WithError(err).Warn("tasks: refresh failed, serving cached copy")
		return s.store.Load(), err
	}
	return s.store.ReplaceFromServer(serverTasks), nil
}

// Create creates the task remotely and mirrors the server's copy into the
// cache. If the server is unreachable the task is kept locally under a
// device-local identifier; a later successful refresh reconciles it. A
// server-side rejection (non-2xx) is returned as-is with no local write.
func (s *Service) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := s.client.CreateTask(ctx, t)
	if err == nil {
		s.store.Upsert(*created)
		return *created, nil
	}
	if api.IsStatusError(err) || api.IsAuthError(err) {
		return model.Task{}, err
	}

	t.ID = model.NewLocalID()
	s.store.Upsert(t)
	s.log.WithError(err).WithField("task", t.ID).
		Warn("tasks: server unreachable, created locally")
	return t, nil
}

// Update updates the task remotely and mirrors the result. Tasks that
// only exist locally are updated in the cache alone.
func (s *Service) Update(ctx context.Context, t model.Task) (model.Task, error) {
	if t.IsLocal() {
		s.store.Upsert(t)
		return t, nil
	}

	updated, err := s.client.UpdateTask(ctx, t)
	if err != nil {
		return model.Task{}, fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	s.store.Upsert(*updated)
	return *updated, nil
}

// Delete removes the task remotely and from the cache. Local-only tasks
// skip the server call. A remote failure leaves the cache untouched so
// the caller can surface the error and retry.
func (s *Service) Delete(ctx context.Context, id string) error {
	t := model.Task{ID: id}
	if !t.IsLocal() {
		if err := s.client.DeleteTask(ctx, id); err != nil {
			return fmt.Errorf("deleting task %s: %w", id, err)
		}
	}
	s.store.Delete(id)
	return nil
}
