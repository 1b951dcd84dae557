package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/models"
)

// AlertFeed is the always-visible column of recent entries, newest first.
type AlertFeed struct {
	entries  []models.LogEntry
	capacity int
	cursor   int
	width    int
	height   int
}

// NewAlertFeed creates an empty feed.
func NewAlertFeed() *AlertFeed {
	return &AlertFeed{}
}

// SetSize updates dimensions.
func (f *AlertFeed) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetEntries replaces the feed contents. A new entry arriving at the top
// keeps the cursor on the entry it was on.
func (f *AlertFeed) SetEntries(entries []models.LogEntry, capacity int) {
	if f.cursor > 0 && len(f.entries) > 0 && len(entries) > 0 {
		current := f.entries[f.cursor].ID
		for i, e := range entries {
			if e.ID == current {
				f.cursor = i
				break
			}
		}
	}
	f.entries = entries
	f.capacity = capacity
	if f.cursor >= len(entries) {
		f.cursor = len(entries) - 1
	}
	if f.cursor < 0 {
		f.cursor = 0
	}
}

// MoveUp moves the cursor toward newer entries.
func (f *AlertFeed) MoveUp() {
	if f.cursor > 0 {
		f.cursor--
	}
}

// MoveDown moves the cursor toward older entries.
func (f *AlertFeed) MoveDown() {
	if f.cursor < len(f.entries)-1 {
		f.cursor++
	}
}

// Selected returns the entry under the cursor, or nil.
func (f *AlertFeed) Selected() *models.LogEntry {
	if f.cursor < 0 || f.cursor >= len(f.entries) {
		return nil
	}
	e := f.entries[f.cursor]
	return &e
}

// View renders the feed. Each entry takes two lines.
func (f *AlertFeed) View(focused bool) string {
	title := sectionHeaderStyle.Render("Recent Alerts")
	count := dimStyle.Render(" " + strconv.Itoa(len(f.entries)) + "/" + strconv.Itoa(f.capacity))
	lines := []string{title + count, ""}

	if len(f.entries) == 0 {
		lines = append(lines, dimStyle.Render("Waiting for events..."))
		return strings.Join(lines, "\n")
	}

	perEntry := 2
	visible := (f.height - 2) / perEntry
	if visible < 1 {
		visible = 1
	}
	start := 0
	if f.cursor >= visible {
		start = f.cursor - visible + 1
	}
	end := start + visible
	if end > len(f.entries) {
		end = len(f.entries)
	}

	for i := start; i < end; i++ {
		e := f.entries[i]
		head := severityStyle(e.Severity).Render(severityMark(e.Severity)+" "+e.Title) +
			" " + dimStyle.Render(e.Time)
		if e.Attachment.Present() {
			head += dimStyle.Render(" ▣")
		}
		body := "  " + lipgloss.NewStyle().Foreground(colorWhite).Render(e.Message)
		if focused && i == f.cursor {
			head = selectedItemStyle.Width(f.width).Render(head)
			body = selectedItemStyle.Width(f.width).Render(body)
		}
		lines = append(lines, head, body)
	}
	return strings.Join(lines, "\n")
}
