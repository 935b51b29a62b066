// Package login renders the credential form shown before a session
// exists.
package login

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/crmdesk/crmdesk/internal/theme"
)

// SubmitMsg carries the entered credentials to the application root.
type SubmitMsg struct {
	Email    string
	Password string
}

// Model wraps a huh form collecting email and password. The bound values
// live behind pointers so copies of the model share them with the form.
type Model struct {
	form     *huh.Form
	email    *string
	password *string
	errMsg   string
	width    int
}

// New creates a fresh login form.
func New(width int) Model {
	email := new(string)
	password := new(string)
	return Model{
		form:     newForm(email, password),
		email:    email,
		password: password,
		width:    width,
	}
}

func newForm(email, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		),
	)
}

// SetError displays a login failure and resets the form for another try.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
	*m.email = ""
	*m.password = ""
	m.form = newForm(m.email, m.password)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update advances the form; on completion it emits a SubmitMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email, password := *m.email, *m.password
		return m, tea.Batch(cmd, func() tea.Msg {
			return SubmitMsg{Email: email, Password: password}
		})
	}

	return m, cmd
}

// View renders the form with the application header.
func (m Model) View() string {
	parts := []string{
		theme.HeaderStyle.Render("crmdesk: sign in"),
		"",
		m.form.View(),
	}
	if m.errMsg != "" {
		parts = append(parts, "", lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
