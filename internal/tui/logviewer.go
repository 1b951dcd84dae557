package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/models"
)

// LogViewer displays the entry buffer with list and detail views.
type LogViewer struct {
	entries       []models.LogEntry
	selectedIndex int
	viewing       bool // true = showing one entry, false = showing list
	viewport      viewport.Model
	width         int
	height        int
	scrollOffset  int
	detail        *models.LogEntry
	loading       bool
}

// NewLogViewer creates a new log viewer.
func NewLogViewer() *LogViewer {
	vp := viewport.New(80, 24)
	return &LogViewer{
		viewport: vp,
	}
}

// SetSize updates dimensions.
func (l *LogViewer) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.viewport.Width = width
	l.viewport.Height = height
}

// SetEntries updates the list, keeping the selection on the same entry
// when it is still present.
func (l *LogViewer) SetEntries(entries []models.LogEntry) {
	var selectedID string
	if e := l.Selected(); e != nil {
		selectedID = e.ID
	}
	l.entries = entries

	if selectedID != "" {
		for i, e := range entries {
			if e.ID == selectedID {
				l.selectedIndex = i
				l.ensureVisible()
				return
			}
		}
	}
	if l.selectedIndex >= len(entries) {
		l.selectedIndex = len(entries) - 1
	}
	if l.selectedIndex < 0 {
		l.selectedIndex = 0
	}
	l.ensureVisible()
}

// SetLoading marks a history fetch in progress.
func (l *LogViewer) SetLoading(on bool) {
	l.loading = on
}

// IsViewing returns whether we're in detail view.
func (l *LogViewer) IsViewing() bool {
	return l.viewing
}

// Selected returns the entry under the cursor, or the one being viewed.
func (l *LogViewer) Selected() *models.LogEntry {
	if l.viewing && l.detail != nil {
		return l.detail
	}
	if l.selectedIndex < 0 || l.selectedIndex >= len(l.entries) {
		return nil
	}
	e := l.entries[l.selectedIndex]
	return &e
}

// Open shows the selected entry in the detail view.
func (l *LogViewer) Open() {
	e := l.Selected()
	if e == nil {
		return
	}
	l.detail = e
	l.viewing = true
	l.viewport.SetContent(formatEntryDetail(*e, l.width))
	l.viewport.GotoTop()
}

// MoveUp moves cursor up in list view.
func (l *LogViewer) MoveUp() {
	if l.viewing {
		l.viewport.LineUp(1)
		return
	}
	if l.selectedIndex > 0 {
		l.selectedIndex--
		l.ensureVisible()
	}
}

// MoveDown moves cursor down in list view.
func (l *LogViewer) MoveDown() {
	if l.viewing {
		l.viewport.LineDown(1)
		return
	}
	if l.selectedIndex < len(l.entries)-1 {
		l.selectedIndex++
		l.ensureVisible()
	}
}

// GoBack returns to list view from detail view.
func (l *LogViewer) GoBack() {
	l.viewing = false
	l.detail = nil
}

func (l *LogViewer) ensureVisible() {
	if l.selectedIndex < l.scrollOffset {
		l.scrollOffset = l.selectedIndex
	}
	if l.height > 0 && l.selectedIndex >= l.scrollOffset+l.height {
		l.scrollOffset = l.selectedIndex - l.height + 1
	}
}

// View renders the log viewer.
func (l *LogViewer) View() string {
	if l.viewing {
		return l.viewDetail()
	}
	return l.viewList()
}

func (l *LogViewer) viewList() string {
	if len(l.entries) == 0 {
		msg := "\nNo entries yet. Press r to load history."
		if l.loading {
			msg = "\nLoading history..."
		}
		return lipgloss.NewStyle().Foreground(colorDim).Width(l.width).Align(lipgloss.Center).
			Render(msg)
	}

	var lines []string
	end := l.scrollOffset + l.height
	if end > len(l.entries) {
		end = len(l.entries)
	}

	for i := l.scrollOffset; i < end; i++ {
		line := formatEntryLine(l.entries[i])
		if i == l.selectedIndex {
			line = selectedItemStyle.Width(l.width).Render(line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	if l.scrollOffset > 0 {
		lines = append([]string{dimStyle.Render("  ▲ more")}, lines...)
	}
	if end < len(l.entries) {
		lines = append(lines, dimStyle.Render("  ▼ more"))
	}

	return strings.Join(lines, "\n")
}

func (l *LogViewer) viewDetail() string {
	if l.detail == nil {
		return ""
	}
	headerLine := severityStyle(l.detail.Severity).Render(l.detail.Title)
	backHint := dimStyle.Render("Esc to go back · p to preview")
	info := headerLine + "\n" + backHint + "\n" +
		dimStyle.Render(strings.Repeat("─", l.width)) + "\n"

	vpHeight := l.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	l.viewport.Height = vpHeight
	l.viewport.Width = l.width

	return info + l.viewport.View()
}

// formatEntryLine renders "09:26:53 ■ title · message".
func formatEntryLine(e models.LogEntry) string {
	marker := "  "
	if e.Attachment.Present() {
		marker = " ▣"
	}
	return fmt.Sprintf("%s %s%s %s",
		dimStyle.Render(e.Time),
		severityStyle(e.Severity).Render(severityMark(e.Severity)),
		marker,
		valueStyle.Render(e.Title)+dimStyle.Render(" · "+e.Message),
	)
}

func formatEntryDetail(e models.LogEntry, width int) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(settingsLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Time", e.Time)
	row("Severity", severityStyle(e.Severity).Render(string(e.Severity)))
	if url, ok := e.Attachment.URL(); ok {
		row("Image", url)
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(e.Message))
	return b.String()
}

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityHigh:
		return severityHighStyle
	case models.SeverityMedium:
		return severityMediumStyle
	default:
		return severityInfoStyle
	}
}

func severityMark(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "●"
	case models.SeverityMedium:
		return "◆"
	default:
		return "·"
	}
}
