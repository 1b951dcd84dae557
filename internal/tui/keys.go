package tui

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys are always active.
type GlobalKeys struct {
	Quit key.Binding
	Help key.Binding
	Tab  key.Binding
}

var globalKeys = GlobalKeys{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+q", "ctrl+c"),
		key.WithHelp("Ctrl+q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+h", "?"),
		key.WithHelp("?", "help"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch panel"),
	),
}

// TabSwitchKeys select the main view.
type TabSwitchKeys struct {
	Tab1 key.Binding
	Tab2 key.Binding
	Tab3 key.Binding
}

var tabSwitchKeys = TabSwitchKeys{
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "Dashboard"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "Logs"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "Settings"),
	),
}

// DashboardKeys are active on the dashboard.
type DashboardKeys struct {
	Stream key.Binding
	Retry  key.Binding
	Upload key.Binding
	Open   key.Binding
}

var dashboardKeys = DashboardKeys{
	Stream: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stream on/off"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry stream"),
	),
	Upload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "submit image"),
	),
	Open: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "last result"),
	),
}

// ListKeys navigate the log list and the alert feed.
type ListKeys struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Preview key.Binding
	Refresh key.Binding
}

var listKeys = ListKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("j/k", "navigate"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/k", "navigate"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "view"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Preview: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "preview image"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

// SettingsKeys are active when the settings form is shown.
type SettingsKeys struct {
	Up       key.Binding
	Down     key.Binding
	Decrease key.Binding
	Increase key.Binding
	Save     key.Binding
	Reload   key.Binding
}

var settingsKeys = SettingsKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("j/k", "navigate"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/k", "navigate"),
	),
	Decrease: key.NewBinding(
		key.WithKeys("left", "h", "-"),
		key.WithHelp("←/→", "adjust"),
	),
	Increase: key.NewBinding(
		key.WithKeys("right", "l", "+", "="),
		key.WithHelp("←/→", "adjust"),
	),
	Save: key.NewBinding(
		key.WithKeys("enter", "ctrl+s"),
		key.WithHelp("Enter", "save"),
	),
	Reload: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload"),
	),
}

// OverlayKeys are active when an overlay is shown.
type OverlayKeys struct {
	Submit key.Binding
	Cancel key.Binding
}

var overlayKeys = OverlayKeys{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
}
