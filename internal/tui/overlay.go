package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlayKind names the modal box drawn above the panels.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayUpload
	overlayPreview
)

// overlayBox renders the active modal, or "" when there is nothing to show.
func (m Model) overlayBox() string {
	switch m.activeOverlay {
	case overlayHelp:
		return renderHelp(m.width)
	case overlayUpload:
		if m.uploadForm != nil {
			return m.uploadForm.View()
		}
	case overlayPreview:
		if m.snap.Preview.Present() {
			return renderPreview(m.baseURL, m.snap.Preview, m.width)
		}
	}
	return ""
}

// renderOverlay greys out base and centres box on top of it.
func renderOverlay(base, box string, width, height int) string {
	canvas := strings.Split(base, "\n")
	for i, line := range canvas {
		canvas[i] = overlayDimStyle.Render(ansi.Strip(line))
	}

	rows := strings.Split(box, "\n")
	x := max(1, (width-lipgloss.Width(box))/2)
	y := max(1, (height-len(rows))/2)
	for i, r := range rows {
		if y+i >= len(canvas) {
			break
		}
		canvas[y+i] = splice(canvas[y+i], r, x)
	}
	return strings.Join(canvas, "\n")
}

// splice writes fg over bg starting at column x. Short backgrounds are
// padded so the box never shifts left.
func splice(bg, fg string, x int) string {
	const reset = "\x1b[0m"

	left := ansi.Truncate(bg, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	var right string
	if end, w := x+ansi.StringWidth(fg), ansi.StringWidth(bg); end < w {
		right = ansi.Cut(bg, end, w)
	}
	return left + reset + fg + reset + right
}
