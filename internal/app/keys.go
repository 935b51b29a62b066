package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the top-level key bindings.
type KeyMap struct {
	Notifications key.Binding
	Refresh       key.Binding
	Logout        key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:        key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
