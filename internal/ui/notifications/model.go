// Package notifications renders the notification-center popup: the
// newest-first list of queue entries with per-item and bulk mark-read.
package notifications

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/theme"
)

// MarkReadMsg asks the queue owner to mark a single notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the queue owner to mark everything read.
type MarkAllReadMsg struct{}

// CloseMsg asks the queue owner to hide the popup.
type CloseMsg struct{}

// KeyMap holds the popup key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Read    key.Binding
	ReadAll key.Binding
	Close   key.Binding
}

// DefaultKeyMap returns the standard popup bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Read:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "mark read")),
		ReadAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),
		Close:   key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "close")),
	}
}

// Model is the popup view state. The queue itself stays owned by the
// application root; this view only renders a snapshot and emits messages.
type Model struct {
	items  []model.Notification
	cursor int
	keys   KeyMap
	width  int
	height int
}

// New creates a popup model with the given dimensions.
func New(width, height int) Model {
	return Model{
		keys:   DefaultKeyMap(),
		width:  width,
		height: height,
	}
}

// SetSize updates the popup dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetItems replaces the rendered snapshot, clamping the cursor.
func (m *Model) SetItems(items []model.Notification) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles popup key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Read):
		if m.cursor < len(m.items) {
			id := m.items[m.cursor].ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }
		}
	case key.Matches(keyMsg, m.keys.ReadAll):
		return m, func() tea.Msg { return MarkAllReadMsg{} }
	case key.Matches(keyMsg, m.keys.Close):
		return m, func() tea.Msg { return CloseMsg{} }
	}

	return m, nil
}

// View renders the popup.
func (m Model) View() string {
	title := theme.HeaderStyle.Render("Notifications")

	if len(m.items) == 0 {
		body := theme.HelpStyle.Render("No notifications.")
		return theme.PopupStyle.Width(m.width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", body),
		)
	}

	lines := make([]string, 0, len(m.items)+2)
	lines = append(lines, title, "")

	for i, n := range m.items {
		marker := "●"
		style := theme.UnreadStyle
		if n.Read {
			marker = " "
			style = theme.ReadStyle
		}

		line := fmt.Sprintf("%s %s: %s %s",
			marker, n.Title, n.Message, theme.HelpStyle.Render(displayTime(n.Timestamp)))

		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(style.Render(line)))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(style.Render(line)))
		}
	}

	lines = append(lines, "", theme.HelpStyle.Render("enter mark read · a mark all · esc close"))

	return theme.PopupStyle.Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

// displayTime shortens an RFC3339 timestamp for the list; anything
// unparseable is shown as-is.
func displayTime(ts string) string {
	at, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return at.Local().Format("Jan 2 15:04")
}
