package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// panelLayout holds computed dimensions for the main view and the alert
// feed beside it.
type panelLayout struct {
	mainWidth     int
	feedWidth     int
	contentHeight int
}

func computeLayout(width, height int, splitRatio float64) panelLayout {
	// 1 line header, 1 line status bar
	contentHeight := height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	usable := width - 1 // divider
	mainWidth := int(float64(usable) * splitRatio)
	feedWidth := usable - mainWidth

	if mainWidth < 10 {
		mainWidth = 10
	}
	if feedWidth < 10 {
		feedWidth = 10
	}

	return panelLayout{
		mainWidth:     mainWidth,
		feedWidth:     feedWidth,
		contentHeight: contentHeight,
	}
}

// inner returns the usable content size of a panel of the given outer width.
func (l panelLayout) inner(outer int) (w, h int) {
	w, h = outer-2, l.contentHeight-2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func renderPanels(mainContent, feedContent string, layout panelLayout, focusedPanel int) string {
	mainStyle := unfocusedBorderStyle
	feedStyle := unfocusedBorderStyle
	if focusedPanel == 0 {
		mainStyle = focusedBorderStyle
	} else {
		feedStyle = focusedBorderStyle
	}

	mainInner, innerHeight := layout.inner(layout.mainWidth)
	feedInner, _ := layout.inner(layout.feedWidth)

	left := mainStyle.
		Width(mainInner).
		Height(innerHeight).
		Render(truncateContent(mainContent, mainInner, innerHeight))

	right := feedStyle.
		Width(feedInner).
		Height(innerHeight).
		Render(truncateContent(feedContent, feedInner, innerHeight))

	divider := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(strings.TrimSuffix(strings.Repeat("│\n", lipgloss.Height(left)), "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, divider, right)
}

// truncateContent clips content to width x height, ANSI-aware.
func truncateContent(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}
