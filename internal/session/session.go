// Package session manages the authenticated CRM session: login, the
// cached current-user identity, and the logout security boundary.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/credential"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

// Manager owns the session lifecycle. The current user is fetched from
// /auth/me once and cached; the reminder scanner consults it every tick
// to scope firing to the session's own tasks.
type Manager struct {
	client *api.Client
	queue  *store.NotificationQueue
	log    *logrus.Logger

	mu   sync.Mutex
	user *model.User
}

// NewManager creates a session manager bound to the given client and
// notification queue.
func NewManager(client *api.Client, queue *store.NotificationQueue, log *logrus.Logger) *Manager {
	return &Manager{client: client, queue: queue, log: log}
}

// RestoreToken installs a previously stored bearer token into the client.
// Returns whether a token was found.
func (m *Manager) RestoreToken() bool {
	token, err := credential.Token()
	if err != nil || token == "" {
		return false
	}
	m.client.SetToken(token)
	return true
}

// Login authenticates against the server, persists the issued token in
// the keyring, and installs it on the client. A keyring failure is logged
// but does not fail the login; the session simply won't survive restart.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	if err := credential.SetToken(token); err != nil {
		m.log.WithError(err).Warn("session: token not persisted, login valid until exit")
	}
	m.client.SetToken(token)

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	return nil
}

// CurrentUser returns the authenticated user, fetching it on first use.
func (m *Manager) CurrentUser(ctx context.Context) (*model.User, error) {
	m.mu.Lock()
	if m.user != nil {
		u := *m.user
		m.mu.Unlock()
		return &u, nil
	}
	m.mu.Unlock()

	user, err := m.client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	m.mu.Lock()
	m.user = user
	u := *user
	m.mu.Unlock()
	return &u, nil
}

// Logout tears the session down: the stored credential is removed, the
// client token cleared, and the persisted notification queue wiped so no
// notification content survives into the next session on this device.
func (m *Manager) Logout() {
	if err := credential.DeleteToken(); err != nil {
		m.log.WithError(err).Warn("session: deleting stored token failed")
	}
	m.client.SetToken("")
	m.queue.ClearAll()

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
}
