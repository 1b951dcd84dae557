package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/nexus-vision/vigil/internal/models"
)

// Adaptive colors matching the TUI palette.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
)

// Severity badge styles.
var (
	badgeInfo   = lipgloss.NewStyle().Foreground(colorCyan)
	badgeMedium = lipgloss.NewStyle().Foreground(colorOrange)
	badgeHigh   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// styled reports whether stdout is a terminal. Piped output stays plain.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(s lipgloss.Style, text string) string {
	if !styled() {
		return text
	}
	return s.Render(text)
}

func severityBadge(sev models.Severity) string {
	label := "[" + string(sev) + "]"
	switch sev {
	case models.SeverityHigh:
		return render(badgeHigh, label)
	case models.SeverityMedium:
		return render(badgeMedium, label)
	default:
		return render(badgeInfo, label)
	}
}

// formatEntry renders one entry as a single line.
func formatEntry(e models.LogEntry) string {
	line := render(styleLabel, e.Time) + " " + severityBadge(e.Severity) + " " +
		render(styleValue, e.Title) + ": " + e.Message
	if url, ok := e.Attachment.URL(); ok {
		line += " " + render(styleHint, "("+url+")")
	}
	return line
}
