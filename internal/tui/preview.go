package tui

import (
	"net/url"
	"strings"

	"github.com/nexus-vision/vigil/internal/models"
)

// resolveAttachment turns an attachment reference into an absolute URL
// against the backend base. Absolute references are returned unchanged.
func resolveAttachment(base string, att models.Attachment) string {
	ref, ok := att.URL()
	if !ok {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref
	}
	return b.ResolveReference(r).String()
}

// renderPreview renders the preview overlay for the selected attachment.
// The terminal cannot draw the image itself, so the overlay shows where to
// open it.
func renderPreview(base string, att models.Attachment, width int) string {
	w := width - 10
	if w > 80 {
		w = 80
	}
	if w < 30 {
		w = 30
	}
	ref, _ := att.URL()
	lines := []string{
		overlayTitleStyle.Render("Result Image"),
		valueStyle.Render(resolveAttachment(base, att)),
	}
	if resolved := resolveAttachment(base, att); resolved != ref {
		lines = append(lines, dimStyle.Render("reference: "+ref))
	}
	lines = append(lines, "", dimStyle.Render("Open the link in a browser to view · Esc to close"))
	return overlayStyle.Width(w).Render(strings.Join(lines, "\n"))
}
