package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
)

var spinnerFrames = spinner.MiniDot.Frames

// Dashboard shows the stream state and the gauges.
type Dashboard struct {
	cpuBar progress.Model
	width  int
	height int
}

// NewDashboard creates a dashboard view.
func NewDashboard() *Dashboard {
	return &Dashboard{
		cpuBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// SetSize updates dimensions.
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
	w := width - 30
	if w < 10 {
		w = 10
	}
	if w > 40 {
		w = 40
	}
	d.cpuBar.Width = w
}

// View renders the dashboard.
func (d *Dashboard) View(snap monitor.Snapshot, lastResult models.Attachment, spinnerFrame int) string {
	var sections []string

	sections = append(sections, sectionHeaderStyle.Render("Live Stream"))
	sections = append(sections, d.streamLines(snap.Stream, spinnerFrame)...)

	sections = append(sections, "", sectionHeaderStyle.Render("Gauges"))
	sections = append(sections,
		row("FPS", valueStyle.Render(fmt.Sprintf("%.1f", snap.Stats.FPS))),
		row("CPU", d.cpuBar.ViewAs(clamp01(snap.Stats.CPU/100))+" "+
			valueStyle.Render(fmt.Sprintf("%5.1f%%", snap.Stats.CPU))),
		row("Defects", defectCount(snap.Stats.DefectCount)),
	)

	sections = append(sections, "", sectionHeaderStyle.Render("Backend"))
	if snap.Backend.Reachable {
		sections = append(sections,
			row("Camera", yesNo(snap.Backend.CameraConnected, "connected", "disconnected")),
			row("Model", yesNo(snap.Backend.ModelLoaded, "loaded", "not loaded")),
			row("Device", valueStyle.Render(orDash(snap.Backend.Device))),
		)
	} else {
		sections = append(sections, dimStyle.Render("No status yet. Start the stream to poll the backend."))
	}

	sections = append(sections, "", sectionHeaderStyle.Render("Last Result"))
	if url, ok := lastResult.URL(); ok {
		sections = append(sections, valueStyle.Render(url), dimStyle.Render("p to view · u to submit another"))
	} else {
		sections = append(sections, dimStyle.Render("None. Press u to submit an image."))
	}

	return strings.Join(sections, "\n")
}

func (d *Dashboard) streamLines(st monitor.StreamState, spinnerFrame int) []string {
	lines := []string{row("State", renderStreamBadge(st, spinnerFrame))}
	if st.Resource != "" {
		lines = append(lines, row("Source", dimStyle.Render(st.Resource)))
	}
	switch st.Phase {
	case monitor.PhaseConnected:
		lines = append(lines, row("Frames", valueStyle.Render(fmt.Sprintf("%d", st.Frames))))
	case monitor.PhaseErrored:
		if st.LastError != "" {
			lines = append(lines, row("Error", badgeErrorStyle.Render(st.LastError)))
		}
		lines = append(lines, dimStyle.Render("Press r to retry"))
	case monitor.PhaseIdle:
		lines = append(lines, dimStyle.Render("Press s to start streaming"))
	}
	return lines
}

func row(label, value string) string {
	return lipgloss.NewStyle().Width(10).Foreground(colorDim).Render(label) + value
}

func defectCount(n int) string {
	if n == 0 {
		return valueStyle.Render("0")
	}
	return severityHighStyle.Render(fmt.Sprintf("%d", n))
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return lipgloss.NewStyle().Foreground(colorGreen).Render(yes)
	}
	return lipgloss.NewStyle().Foreground(colorRed).Render(no)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
