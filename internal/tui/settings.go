package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
)

const (
	fieldConfidence = iota
	fieldResolution
	fieldCount
)

// SettingsForm renders the inference settings and turns keys into edits.
// Values live in the App's edit buffer, not here.
type SettingsForm struct {
	cursor int
	slider progress.Model
	width  int
	height int
}

// NewSettingsForm creates a new settings form.
func NewSettingsForm() *SettingsForm {
	return &SettingsForm{
		slider: progress.New(progress.WithSolidFill(string(colorCyan.Dark)), progress.WithoutPercentage()),
	}
}

// SetSize updates dimensions.
func (s *SettingsForm) SetSize(width, height int) {
	s.width = width
	s.height = height
	w := width - 32
	if w < 10 {
		w = 10
	}
	if w > 40 {
		w = 40
	}
	s.slider.Width = w
}

// MoveUp moves cursor up.
func (s *SettingsForm) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves cursor down.
func (s *SettingsForm) MoveDown() {
	if s.cursor < fieldCount-1 {
		s.cursor++
	}
}

// Adjust returns an edit moving the focused field by delta steps.
func (s *SettingsForm) Adjust(delta int) func(models.InferenceSettings) models.InferenceSettings {
	field := s.cursor
	return func(cur models.InferenceSettings) models.InferenceSettings {
		if field == fieldConfidence {
			return cur.StepConfidence(delta)
		}
		return cur.CycleResolution(delta)
	}
}

// View renders the settings form from a snapshot.
func (s *SettingsForm) View(snap monitor.Snapshot) string {
	if !snap.SettingsLoaded {
		return dimStyle.Render("Loading settings...")
	}

	edit := snap.Settings
	ack := snap.AckSettings

	confValue := fmt.Sprintf("%.2f", edit.ConfidenceThreshold)
	if edit.ConfidenceThreshold != ack.ConfidenceThreshold {
		confValue = settingsDirtyStyle.Render(confValue + "*")
	} else {
		confValue = settingsValueStyle.Render(confValue)
	}
	pct := (edit.ConfidenceThreshold - models.MinConfidence) / (models.MaxConfidence - models.MinConfidence)
	conf := settingsLabelStyle.Render("Confidence threshold") + " " +
		s.slider.ViewAs(pct) + " " + confValue

	var sizes []string
	for _, r := range models.Resolutions {
		label := fmt.Sprintf("%d", r)
		switch {
		case r == edit.InferenceResolution && r != ack.InferenceResolution:
			sizes = append(sizes, settingsDirtyStyle.Render("["+label+"]*"))
		case r == edit.InferenceResolution:
			sizes = append(sizes, settingsValueStyle.Render("["+label+"]"))
		default:
			sizes = append(sizes, dimStyle.Render(" "+label+" "))
		}
	}
	res := settingsLabelStyle.Render("Inference resolution") + " " + strings.Join(sizes, " ")

	lines := []string{conf, res}
	for i := range lines {
		if i == s.cursor {
			lines[i] = settingsCursorStyle.Width(s.width).Render(lines[i])
		}
	}

	lines = append(lines, "")
	switch {
	case snap.SettingsSaving:
		lines = append(lines, badgeConnectingStyle.Render("Saving..."))
	case snap.SettingsDirty:
		lines = append(lines, settingsDirtyStyle.Render("Unsaved changes · Enter to save"))
	default:
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Backend: conf %.2f · imgsz %d",
			ack.ConfidenceThreshold, ack.InferenceResolution)))
	}

	return strings.Join(lines, "\n")
}
