package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []helpKey
}

type helpKey struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Global",
		keys: []helpKey{
			{"Ctrl+q", "Quit"},
			{"? / Ctrl+h", "Toggle help"},
			{"Tab", "Focus view / alert feed"},
			{"1/2/3", "Dashboard, Logs, Settings"},
		},
	},
	{
		title: "Dashboard",
		keys: []helpKey{
			{"s", "Start or stop the live stream"},
			{"r", "Retry the stream after an error"},
			{"u", "Submit an image for detection"},
			{"p", "Show the last result image"},
		},
	},
	{
		title: "Logs",
		keys: []helpKey{
			{"r", "Load history from the backend"},
			{"j/k ↑/↓", "Navigate entries"},
			{"Enter", "View entry"},
			{"p", "Preview attachment"},
			{"Esc", "Back to list"},
		},
	},
	{
		title: "Settings",
		keys: []helpKey{
			{"j/k", "Select field"},
			{"←/→", "Adjust value"},
			{"Enter", "Save to backend"},
			{"R", "Reload from backend"},
		},
	},
	{
		title: "Alert feed",
		keys: []helpKey{
			{"j/k", "Navigate alerts"},
			{"Enter", "Preview attachment"},
		},
	},
}

// renderHelp renders the help overlay content.
func renderHelp(width int) string {
	maxWidth := 60
	if width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	sections := make([]string, 0, len(helpSections)*6+3)
	sections = append(sections, overlayTitleStyle.Render("Keyboard Shortcuts"))

	for _, sec := range helpSections {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Render(sec.title)
		sections = append(sections, "", header)

		for _, k := range sec.keys {
			keyCol := lipgloss.NewStyle().
				Width(14).
				Foreground(colorWhite).
				Bold(true).
				Render(k.key)
			sections = append(sections, "  "+keyCol+dimStyle.Render(k.desc))
		}
	}

	sections = append(sections, "", dimStyle.Render("Press Esc or ? to close"))
	return overlayStyle.Width(maxWidth).Render(strings.Join(sections, "\n"))
}
