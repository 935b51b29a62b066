// Package app is the Bubble Tea root model. It owns the notification
// queue's UI state, consumes reminder events from the bus and poll
// results from the backend poller, and routes between the login form and
// the main view.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/bus"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/scanner"
	"github.com/crmdesk/crmdesk/internal/session"
	"github.com/crmdesk/crmdesk/internal/store"
	appsync "github.com/crmdesk/crmdesk/internal/sync"
	"github.com/crmdesk/crmdesk/internal/tasks"
	"github.com/crmdesk/crmdesk/internal/theme"
	"github.com/crmdesk/crmdesk/internal/ui/login"
	"github.com/crmdesk/crmdesk/internal/ui/notifications"
)

// requestTimeout bounds user-initiated network calls.
const requestTimeout = 30 * time.Second

// ViewState represents the current active view.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewMain
)

// Internal messages.
type (
	loggedInMsg    struct{}
	loginFailedMsg struct{ err error }
	restoredMsg    struct{}
	reminderMsg    scanner.ReminderFired
)

// Model is the root application model.
type Model struct {
	cfg     *model.AppConfig
	log     *logrus.Logger
	client  *api.Client
	session *session.Manager
	tasks   *store.TaskStore
	queue   *store.NotificationQueue
	taskSvc *tasks.Service
	bus     *bus.Bus

	scanner *scanner.Scanner
	poller  *appsync.Poller

	currentView ViewState
	keys        *KeyMap
	loginView   login.Model
	popup       notifications.Model
	showPopup   bool
	unread      int
	status      string
	width       int
	height      int

	reminderCh  chan scanner.ReminderFired
	unsubscribe func()
}

// New creates the root model and subscribes it to reminder events.
func New(
	cfg *model.AppConfig,
	client *api.Client,
	sess *session.Manager,
	taskStore *store.TaskStore,
	queue *store.NotificationQueue,
	taskSvc *tasks.Service,
	b *bus.Bus,
	log *logrus.Logger,
) *Model {
	m := &Model{
		cfg:         cfg,
		log:         log,
		client:      client,
		session:     sess,
		tasks:       taskStore,
		queue:       queue,
		taskSvc:     taskSvc,
		bus:         b,
		currentView: ViewLogin,
		keys:        DefaultKeyMap(),
		loginView:   login.New(60),
		popup:       notifications.New(70, 20),
		reminderCh:  make(chan scanner.ReminderFired, 16),
	}

	// The scanner publishes reminder events; the queue owner (this
	// model) consumes them. The handler only forwards into a channel so
	// publishing never blocks on the UI.
	m.unsubscribe = b.Subscribe(scanner.EventReminderFired, func(payload any) {
		ev, ok := payload.(scanner.ReminderFired)
		if !ok {
			return
		}
		select {
		case m.reminderCh <- ev:
		default:
			m.log.WithField("notification", ev.Notification.ID).
				Warn("app: reminder channel full, event dropped")
		}
	})

	return m
}

// Init restores a previous session when a token exists, otherwise shows
// the login form.
func (m *Model) Init() tea.Cmd {
	if m.session.RestoreToken() {
		m.currentView = ViewMain
		return tea.Batch(m.restoreQueueCmd(), m.startBackground())
	}
	return m.loginView.Init()
}

// startBackground constructs and starts the scanner and poller for the
// current session. A fresh pair is built per session because stopping
// either is terminal.
func (m *Model) startBackground() tea.Cmd {
	m.scanner = scanner.New(
		m.tasks,
		m.bus,
		m.session.CurrentUser,
		time.Duration(m.cfg.Notify.ScanIntervalSec)*time.Second,
		m.log,
	)
	m.poller = appsync.New(
		m.client,
		m.tasks,
		m.queue,
		time.Duration(m.cfg.Notify.PollIntervalSec)*time.Second,
		time.Duration(m.cfg.Notify.AckDelaySec)*time.Second,
		m.log,
	)

	m.scanner.Start()
	return tea.Batch(m.poller.Start(), m.waitForReminder())
}

// stopBackground halts the scanner and poller if running.
func (m *Model) stopBackground() {
	if m.scanner != nil {
		m.scanner.Stop()
		m.scanner = nil
	}
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
}

// restoreQueueCmd reloads the persisted notification queue, filtered to
// the current user's entries where that association is derivable. If the
// user lookup fails the restore keeps everything rather than hiding
// notifications.
func (m *Model) restoreQueueCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := m.session.CurrentUser(ctx)
		if err != nil {
			m.log.WithError(err).Warn("app: user lookup failed, restoring queue unfiltered")
			m.queue.Restore(nil)
			return restoredMsg{}
		}

		owned := make(map[string]string)
		for _, t := range m.tasks.Load() {
			owned[t.ID] = t.AssignedTo
		}
		m.queue.Restore(func(n model.Notification) bool {
			if n.TaskID == "" {
				return true
			}
			assignee, ok := owned[n.TaskID]
			if !ok {
				return true
			}
			return assignee == user.Name
		})
		return restoredMsg{}
	}
}

// waitForReminder returns a command that delivers the next bus-forwarded
// reminder event into the update loop.
func (m *Model) waitForReminder() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.reminderCh
		if !ok {
			return nil
		}
		return reminderMsg(ev)
	}
}

// loginCmd authenticates with the entered credentials.
func (m *Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := m.session.Login(ctx, email, password); err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{}
	}
}

// Update routes messages to the active view and reconciles queue state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.popup.SetSize(min(msg.Width-4, 70), msg.Height-4)
		return m, nil

	case login.SubmitMsg:
		return m, m.loginCmd(msg.Email, msg.Password)

	case loginFailedMsg:
		m.log.WithError(msg.err).Info("app: login failed")
		m.loginView.SetError("Login failed. Check your credentials and server address.")
		return m, m.loginView.Init()

	case loggedInMsg:
		m.currentView = ViewMain
		m.status = "Signed in."
		return m, tea.Batch(m.restoreQueueCmd(), m.startBackground())

	case restoredMsg:
		m.refreshQueueState()
		return m, nil

	case appsync.PollResult:
		m.refreshQueueState()
		if msg.NewNotifications > 0 {
			m.showPopup = true
		}
		if msg.AuthExpired {
			m.status = "Session expired. Press L to log out and sign in again."
		} else if msg.Err != nil {
			m.status = "Offline: working from local cache."
		} else {
			m.status = ""
		}
		if m.poller == nil {
			return m, nil
		}
		return m, m.poller.WaitForNextResult()

	case reminderMsg:
		if m.queue.Append(msg.Notification) {
			m.showPopup = true
		}
		m.refreshQueueState()
		return m, m.waitForReminder()

	case notifications.MarkReadMsg:
		m.queue.MarkRead(msg.ID)
		m.refreshQueueState()
		return m, nil

	case notifications.MarkAllReadMsg:
		m.queue.MarkAllRead()
		m.refreshQueueState()
		return m, nil

	case notifications.CloseMsg:
		m.showPopup = false
		m.queue.SetOpen(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.routeToView(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewLogin {
		return m.routeToView(msg)
	}

	if m.showPopup {
		var cmd tea.Cmd
		m.popup, cmd = m.popup.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Notifications):
		m.showPopup = true
		m.queue.SetOpen(true)
		m.refreshQueueState()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			return m, m.poller.Refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		m.stopBackground()
		m.session.Logout()
		m.currentView = ViewLogin
		m.loginView = login.New(60)
		m.showPopup = false
		m.unread = 0
		m.status = ""
		return m, m.loginView.Init()
	}

	return m, nil
}

func (m *Model) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewMain:
		if m.showPopup {
			m.popup, cmd = m.popup.Update(msg)
		}
	}
	return m, cmd
}

// refreshQueueState pulls the queue snapshot into the popup and badge.
// The unread count is recomputed on every mutation, never cached apart.
func (m *Model) refreshQueueState() {
	m.unread = m.queue.UnreadCount()
	m.popup.SetItems(m.queue.Items())
	if m.queue.IsOpen() {
		m.showPopup = true
	}
}

func (m *Model) shutdown() {
	m.stopBackground()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// View renders the active view.
func (m *Model) View() string {
	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	if m.showPopup {
		return m.popup.View()
	}

	header := theme.HeaderStyle.Render("crmdesk")
	if m.unread > 0 {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, " ",
			theme.BadgeStyle.Render(fmt.Sprintf("%d unread", m.unread)))
	}

	lines := []string{header, ""}
	tasksCached := m.tasks.Load()
	if len(tasksCached) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No cached tasks yet."))
	}
	for _, t := range tasksCached {
		line := fmt.Sprintf("%-40.40s %-12s %-8s", t.Title, t.Status, t.Priority)
		if t.DueDate != "" {
			line += "  due " + t.DueDate
		}
		if t.HasReminder() {
			line += "  ⏰ " + t.ReminderDate + " " + t.ReminderTime
		}
		lines = append(lines, theme.ListItemStyle.Render(line))
	}

	statusLine := m.status
	if statusLine == "" {
		statusLine = "n notifications · r refresh · L log out · q quit"
	}
	lines = append(lines, "", theme.StatusBarStyle.Render(statusLine))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
