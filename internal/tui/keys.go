package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Timer
	Toggle      key.Binding
	Reset       key.Binding
	Digit       key.Binding
	Up          key.Binding
	Down        key.Binding
	ShowSeconds key.Binding
	Noise       key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Digit, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Digit},
		{k.Up, k.Down, k.ShowSeconds, k.Noise},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "enter"),
			key.WithHelp("space", "start/pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "set time"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "+"),
			key.WithHelp("↑/k", "add time"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "-"),
			key.WithHelp("↓/j", "remove time"),
		),
		ShowSeconds: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle seconds"),
		),
		Noise: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "toggle noise"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
