package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the display page key bindings with built-in help text.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding

	NextPage key.Binding
	PrevPage key.Binding

	Toggle    key.Binding
	Reset     key.Binding
	Reverse   key.Binding
	Increment key.Binding
	Decrement key.Binding
	Redraw    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?/h", "help"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "next display"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "prev display"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "start/stop"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "reverse"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "increment"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "decrement"),
		),
		Redraw: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "redraw"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Increment, k.Decrement, k.NextPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Reverse, k.Redraw},
		{k.Increment, k.Decrement},
		{k.NextPage, k.PrevPage, k.Help, k.Quit, k.ForceQuit},
	}
}
