package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexus-vision/vigil/internal/dropwatch"
)

var (
	errPathRequired = errors.New("image path is required")
	errNotAnImage   = errors.New("not a supported image file")
)

// UploadForm asks for the path of an image to submit.
type UploadForm struct {
	input textinput.Model
	width int
	err   error
}

// NewUploadForm creates the form with the input focused.
func NewUploadForm(width int) *UploadForm {
	ti := textinput.New()
	ti.Placeholder = "/path/to/image.jpg"
	ti.CharLimit = 512
	ti.Width = width - 8
	ti.Focus()
	return &UploadForm{input: ti, width: width}
}

// Update forwards a key to the text input.
func (f *UploadForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.err = nil
	return cmd
}

// Path validates the input and returns the cleaned, absolute path.
func (f *UploadForm) Path() (string, error) {
	p := expandHome(strings.TrimSpace(f.input.Value()))
	if p == "" {
		f.err = errPathRequired
		return "", f.err
	}
	if !dropwatch.IsImage(p) {
		f.err = errNotAnImage
		return "", f.err
	}
	info, err := os.Stat(p)
	if err != nil {
		f.err = err
		return "", err
	}
	if info.IsDir() {
		f.err = errNotAnImage
		return "", f.err
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// View renders the form.
func (f *UploadForm) View() string {
	lines := []string{
		overlayTitleStyle.Render("Submit Image"),
		dimStyle.Render("JPEG, PNG, BMP or WebP"),
		"",
		f.input.View(),
	}
	if f.err != nil {
		lines = append(lines, "", badgeErrorStyle.Render(f.err.Error()))
	}
	lines = append(lines, "", dimStyle.Render("Enter to submit · Esc to cancel"))
	return overlayStyle.Width(f.width).Render(strings.Join(lines, "\n"))
}
