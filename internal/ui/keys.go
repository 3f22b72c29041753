package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Session
	Connect     key.Binding
	Disconnect  key.Binding
	Register    key.Binding
	GetPeers    key.Binding
	GetTorrents key.Binding
	Ping        key.Binding
	Upload      key.Binding
	Debug       key.Binding
	ClearLog    key.Binding
	FocusNext   key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	CycleTheme  key.Binding
	Help        key.Binding
	Quit        key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Connect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Disconnect"),
		),
		Register: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Register peer"),
		),
		GetPeers: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Get peers"),
		),
		GetTorrents: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Get torrents"),
		),
		Ping: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Test connection"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Upload torrent"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Debug info"),
		),
		ClearLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Clear log"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle panes"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Register, k.GetPeers, k.GetTorrents, k.Upload, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, one group per section.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.Disconnect, k.Register},
		{k.GetPeers, k.GetTorrents, k.Ping, k.Upload},
		{k.FocusNext, k.ScrollUp, k.ScrollDown},
		{k.Debug, k.ClearLog, k.CycleTheme, k.Help, k.Quit},
	}
}
