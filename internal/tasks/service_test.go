package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/logging"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

func newService(t *testing.T, handler http.Handler) (*Service, *store.TaskStore) {
	t.Helper()

	var baseURL string
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		baseURL = srv.URL
	} else {
		// Nothing listening: every call is a transport failure.
		baseURL = "http://127.0.0.1:1"
	}

	client := api.NewClient(baseURL, time.Second)
	taskStore := store.NewTaskStore(store.NewMemoryStorage(), logging.Discard())
	return NewService(client, taskStore, logging.Discard()), taskStore
}

func TestCreateMirrorsServerCopy(t *testing.T) {
	svc, taskStore := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in model.Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "srv-1"
		json.NewEncoder(w).Encode(in)
	}))

	created, err := svc.Create(context.Background(), model.Task{Title: "Quote follow-up"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)

	cached := taskStore.Load()
	require.Len(t, cached, 1)
	assert.Equal(t, "srv-1", cached[0].ID)
}

func TestCreateFallsBackToLocalWhenOffline(t *testing.T) {
	svc, taskStore := newService(t, nil)

	created, err := svc.Create(context.Background(), model.Task{Title: "Offline task"})
	require.NoError(t, err)
	assert.True(t, created.IsLocal())

	cached := taskStore.Load()
	require.Len(t, cached, 1)
	assert.Equal(t, created.ID, cached[0].ID)
}

func TestCreateServerRejectionIsNotCachedLocally(t *testing.T) {
	svc, taskStore := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "title required", http.StatusBadRequest)
	}))

	_, err := svc.Create(context.Background(), model.Task{})
	require.Error(t, err)
	assert.True(t, api.IsStatusError(err))
	assert.Empty(t, taskStore.Load())
}

func TestUpdateLocalTaskStaysLocal(t *testing.T) {
	svc, taskStore := newService(t, nil)

	local := model.Task{ID: model.NewLocalID(), Title: "draft"}
	taskStore.Upsert(local)

	local.Title = "edited draft"
	updated, err := svc.Update(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "edited draft", updated.Title)
	assert.Equal(t, "edited draft", taskStore.Load()[0].Title)
}

func TestDeleteRemovesRemoteAndLocal(t *testing.T) {
	var deletedPath string
	svc, taskStore := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deletedPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	taskStore.Upsert(model.Task{ID: "srv-1"})
	require.NoError(t, svc.Delete(context.Background(), "srv-1"))

	assert.Equal(t, "DELETE /tasks/srv-1", deletedPath)
	assert.Empty(t, taskStore.Load())
}

func TestDeleteRemoteFailureKeepsCache(t *testing.T) {
	svc, taskStore := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))

	taskStore.Upsert(model.Task{ID: "srv-1"})
	err := svc.Delete(context.Background(), "srv-1")
	require.Error(t, err)
	assert.Len(t, taskStore.Load(), 1)
}

func TestRefreshServesCacheOnFailure(t *testing.T) {
	svc, taskStore := newService(t, nil)

	taskStore.Save([]model.Task{{ID: "cached", Title: "kept"}})

	got, err := svc.Refresh(context.Background())
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].ID)
}
