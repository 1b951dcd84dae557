package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
)

var tabTitles = []string{"Dashboard", "Logs", "Settings"}

func tabIndex(t monitor.Tab) int {
	for i, tab := range monitor.Tabs {
		if tab == t {
			return i
		}
	}
	return 0
}

func renderHeader(snap monitor.Snapshot, spinnerFrame int, width int) string {
	dotColor := colorDim
	if snap.Backend.Reachable {
		dotColor = colorGreen
	}
	dot := lipgloss.NewStyle().Foreground(dotColor).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render("Vigil")

	tabs := renderTabs(tabTitles, tabIndex(snap.Tab))
	badge := renderStreamBadge(snap.Stream, spinnerFrame)
	backend := renderBackendInfo(snap.Backend)

	left := fmt.Sprintf(" %s %s  %s", dot, name, tabs)
	right := fmt.Sprintf("%s  %s ", backend, badge)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderTabs(tabs []string, active int) string {
	var parts []string
	for i, tab := range tabs {
		if i == active {
			parts = append(parts, activeTabStyle.Render(tab))
		} else {
			parts = append(parts, inactiveTabStyle.Render(tab))
		}
	}
	return strings.Join(parts, tabSepStyle.Render(" | "))
}

func renderStreamBadge(st monitor.StreamState, spinnerFrame int) string {
	switch st.Phase {
	case monitor.PhaseConnected:
		return badgeLiveStyle.Render("● Live")
	case monitor.PhaseConnecting:
		frame := spinnerFrames[spinnerFrame%len(spinnerFrames)]
		return badgeConnectingStyle.Render(frame + " Connecting")
	case monitor.PhaseErrored:
		return badgeErrorStyle.Render("✕ Stream error")
	default:
		return badgeIdleStyle.Render("○ Off")
	}
}

func renderBackendInfo(info models.BackendInfo) string {
	if !info.Reachable {
		return dimStyle.Render("backend ?")
	}
	model := lipgloss.NewStyle().Foreground(colorRed).Render("model ✗")
	if info.ModelLoaded {
		model = lipgloss.NewStyle().Foreground(colorGreen).Render("model ✓")
	}
	device := info.Device
	if device == "" {
		device = "?"
	}
	return model + dimStyle.Render(" · "+device)
}
