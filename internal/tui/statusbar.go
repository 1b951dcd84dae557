package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/monitor"
)

func renderStatusBar(m *Model, width int) string {
	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}
	if m.showSaved {
		return renderSavedBar(width)
	}

	left := " " + getKeyHints(m)

	// Push channel status
	right := ""
	if m.snap.ChannelConnected {
		right = lipgloss.NewStyle().Foreground(colorGreen).Render("Connected") + " "
	} else {
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Disconnected") + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	switch m.activeOverlay {
	case overlayUpload:
		return keyHint("Enter", "submit") + "  " + keyHint("Esc", "cancel")
	case overlayHelp, overlayPreview:
		return keyHint("Esc", "close")
	}

	base := keyHint("Ctrl+q", "quit") + "  " + keyHint("?", "help") + "  " + keyHint("Tab", "switch")

	if m.focusedPanel == 1 {
		return base + "  " + keyHint("j/k", "navigate") + "  " + keyHint("Enter", "preview")
	}

	switch m.snap.Tab {
	case monitor.TabDashboard:
		return base + "  " + keyHint("s", "stream") + "  " + keyHint("r", "retry") + "  " +
			keyHint("u", "submit image") + "  " + keyHint("p", "last result")
	case monitor.TabLogs:
		if m.logViewer.IsViewing() {
			return base + "  " + keyHint("p", "preview") + "  " + keyHint("Esc", "back")
		}
		return base + "  " + keyHint("r", "refresh") + "  " + keyHint("Enter", "view") + "  " +
			keyHint("p", "preview")
	case monitor.TabSettings:
		if m.snap.SettingsSaving {
			return base + "  " + keyHint("", "saving...")
		}
		return base + "  " + keyHint("j/k", "navigate") + "  " + keyHint("←/→", "adjust") + "  " +
			keyHint("Enter", "save") + "  " + keyHint("R", "reload")
	}
	return base
}

func keyHint(k, desc string) string {
	if k == "" {
		return hintStyle.Render(desc)
	}
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}

func renderSavedBar(width int) string {
	return statusBarStyle.
		Width(width).
		Render(" " + lipgloss.NewStyle().Foreground(colorGreen).Render("Saved"))
}
