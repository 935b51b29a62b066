package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmdesk/crmdesk/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]model.Task{})
	})
	c.SetToken("secret-token")

	_, err := c.GetTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(loginResponse{Token: "issued"})
	})

	token, err := c.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "issued", token)
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedBecomesAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.False(t, IsStatusError(err))
}

func TestNonSuccessBecomesStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})

	_, err := c.GetTasks(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}

func TestTransportFailureIsNeitherTaxon(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 500*time.Millisecond)

	_, err := c.GetTasks(context.Background())
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
	assert.False(t, IsStatusError(err))
}

func TestGetPendingNotifications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/notifications/pending", r.URL.Path)
		json.NewEncoder(w).Encode([]PendingNotification{
			{ReminderID: "r1", TaskID: "t1", Title: "X", Message: "due"},
		})
	})

	pending, err := c.GetPendingNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ReminderID)
}

func TestMarkNotificationProcessed(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.MarkNotificationProcessed(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/tasks/notifications/r1/processed", gotPath)
}

func TestCreateTaskReturnsServerCopy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in model.Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "server-id"
		json.NewEncoder(w).Encode(in)
	})

	created, err := c.CreateTask(context.Background(), model.Task{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, "server-id", created.ID)
	assert.Equal(t, "new", created.Title)
}
