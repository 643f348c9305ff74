package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Add         key.Binding
	Sub         key.Binding
	AddTen      key.Binding
	SubTen      key.Binding
	Leaderboard key.Binding
	Reset       key.Binding
	Theme       key.Binding
	Reload      key.Binding
	Help        key.Binding
	Back        key.Binding
	Confirm     key.Binding
	Deny        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("+", "=", "right", "l"),
			key.WithHelp("+", "add point"),
		),
		Sub: key.NewBinding(
			key.WithKeys("-", "_", "left", "h"),
			key.WithHelp("-", "remove point"),
		),
		AddTen: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "+10"),
		),
		SubTen: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "-10"),
		),
		Leaderboard: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "leaders"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset all"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Sub, k.Leaderboard, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Add, k.Sub, k.AddTen, k.SubTen},
		{k.Leaderboard, k.Back, k.Reset, k.Reload},
		{k.Theme, k.Help, k.Quit},
	}
}
