package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the urgency of a log entry.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity accepts exactly the three wire values.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityInfo, SeverityMedium, SeverityHigh:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// NormalizeSeverity maps loosely formatted levels (as found in history files)
// onto the three known severities. Unknown levels become info.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "error", "critical":
		return SeverityHigh
	case "medium", "warning", "warn":
		return SeverityMedium
	default:
		return SeverityInfo
	}
}

// Attachment is an optional reference to a displayable image.
// The zero value is the absent variant.
type Attachment struct {
	url string
}

// NoAttachment returns the absent variant.
func NoAttachment() Attachment { return Attachment{} }

// AttachmentOf returns the present variant for url, or the absent variant
// when url is empty.
func AttachmentOf(url string) Attachment {
	return Attachment{url: strings.TrimSpace(url)}
}

// URL returns the image reference and whether one is present.
func (a Attachment) URL() (string, bool) {
	return a.url, a.url != ""
}

// Present reports whether the attachment carries a reference.
func (a Attachment) Present() bool { return a.url != "" }

func (a Attachment) MarshalJSON() ([]byte, error) {
	if a.url == "" {
		return []byte("null"), nil
	}
	return json.Marshal(a.url)
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*a = NoAttachment()
		return nil
	}
	*a = AttachmentOf(*s)
	return nil
}

// LogEntry is a single alert or log line shown to the operator.
// Entries are immutable once created.
type LogEntry struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   Severity   `json:"severity"`
	Attachment Attachment `json:"attachment"`
	Time       string     `json:"time"`
}

// TimeLayout is the client-local clock format assigned at ingestion.
const TimeLayout = "15:04:05"
