package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Focus     key.Binding
	Toggle    key.Binding
	Mode      key.Binding
	Sort      key.Binding
	Common    key.Binding
	Analyze   key.Binding
	WordCloud key.Binding
	Download  key.Binding
	Highlight key.Binding
	Export    key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Mode, k.Sort, k.WordCloud, k.Download, k.Highlight, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Focus},
		{k.Toggle, k.Mode, k.Sort, k.Common},
		{k.Analyze, k.WordCloud, k.Download, k.Highlight, k.Export},
		{k.Dismiss, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn", "page down"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "files/results"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "check file"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "all/common"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Common: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "include all common"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "re-analyze"),
		),
		WordCloud: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "word cloud"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Highlight: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "highlight file"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export highlight"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss notice"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
