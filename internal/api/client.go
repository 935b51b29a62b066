// Package api is a thin HTTP client for the CRM REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	gosync "sync"
	"time"

	"github.com/crmdesk/crmdesk/internal/model"
)

// Client talks to the CRM server. It handles Bearer token authentication,
// JSON marshaling, and the status taxonomy callers branch on: 401 becomes
// an AuthError, other non-2xx a StatusError, and transport failures a
// wrapped plain error.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    gosync.Mutex
	token string
}

// NewClient creates a CRM API client. baseURL should include the API
// root (e.g. https://crm.example.com/api). The token may be empty until
// a session is established via Login and SetToken.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken replaces the bearer credential used on subsequent requests.
// An empty token clears the session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login exchanges credentials for a bearer token. The token is returned
// but not installed; callers decide whether to persist it first.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login succeeded but no token in response")
	}
	return resp.Token, nil
}

// Me returns the currently authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTasks fetches the full task collection visible to the session.
func (c *Client) GetTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the server's copy, which carries
// the assigned identifier.
func (c *Client) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	var created model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask updates a task by its server identifier.
func (c *Client) UpdateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	var updated model.Task
	path := "/tasks/" + url.PathEscape(t.ID)
	if err := c.do(ctx, http.MethodPut, path, t, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask removes a task by its server identifier.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// GetPendingNotifications fetches server-side reminders that are due but
// not yet acknowledged.
func (c *Client) GetPendingNotifications(ctx context.Context) ([]PendingNotification, error) {
	var pending []PendingNotification
	err := c.do(ctx, http.MethodGet, "/tasks/notifications/pending", nil, &pending)
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// MarkNotificationProcessed acknowledges a server reminder. The body is
// empty and any 2xx is accepted.
func (c *Client) MarkNotificationProcessed(ctx context.Context, reminderID string) error {
	path := "/tasks/notifications/" + url.PathEscape(reminderID) + "/processed"
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// do is the core HTTP method that builds the request, attaches auth, and
// handles JSON (de)serialization and the error taxonomy.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{
			Message: fmt.Sprintf("session rejected by %s, log in again", c.baseURL),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Code:   resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   string(respBody),
		}
	}

	// No content to parse (e.g. 204, or caller doesn't want a body).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}
