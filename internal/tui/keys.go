package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Up         key.Binding
	Down       key.Binding
	Refresh    key.Binding
	Deactivate key.Binding
	Reverse    key.Binding
	Method     key.Binding
	PrevYear   key.Binding
	NextYear   key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/confirm"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "move down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Deactivate: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "deactivate account"),
	),
	Reverse: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reverse entry"),
	),
	Method: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "cycle costing method"),
	),
	PrevYear: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("left/h", "previous year"),
	),
	NextYear: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("right/l", "next year"),
	),
}
