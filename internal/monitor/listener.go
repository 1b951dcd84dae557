package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/observability"
)

// Channel is a subscribe-by-name push connection.
type Channel interface {
	Subscribe(event string, handler func(payload json.RawMessage)) (cancel func(), err error)
}

// Listener forwards one named push event into a sink as log entries.
type Listener struct {
	ch    Channel
	event string
	sink  func(models.LogEntry)
	now   func() time.Time

	mu      sync.Mutex
	cancel  func()
	started bool
	closed  bool
}

// NewListener creates a listener for event on ch.
func NewListener(ch Channel, event string, sink func(models.LogEntry), now func() time.Time) *Listener {
	if now == nil {
		now = time.Now
	}
	return &Listener{ch: ch, event: event, sink: sink, now: now}
}

// Start subscribes. A listener subscribes at most once in its lifetime.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.New("listener closed")
	}
	if l.started {
		return nil
	}
	cancel, err := l.ch.Subscribe(l.event, l.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.event, err)
	}
	l.cancel = cancel
	l.started = true
	return nil
}

// Close releases the subscription. Safe to call more than once.
func (l *Listener) Close() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.closed = true
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (l *Listener) handle(payload json.RawMessage) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}

	entry, err := parsePushEvent(payload, l.now())
	if err != nil {
		observability.PushDropped.Inc()
		log.Printf("[listener] dropped %s event: %v", l.event, err)
		return
	}
	l.sink(entry)
}

type pushEvent struct {
	Title      *string `json:"title"`
	Message    *string `json:"message"`
	Severity   string  `json:"severity"`
	Attachment *string `json:"attachment"`
	Time       string  `json:"time"`
}

// parsePushEvent validates a push payload. The backend's own time field is
// ignored; entries are stamped with the client clock.
func parsePushEvent(payload json.RawMessage, now time.Time) (models.LogEntry, error) {
	var ev pushEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return models.LogEntry{}, fmt.Errorf("decode: %w", err)
	}
	if ev.Title == nil || ev.Message == nil {
		return models.LogEntry{}, errors.New("missing title or message")
	}
	sev, err := models.ParseSeverity(ev.Severity)
	if err != nil {
		return models.LogEntry{}, err
	}
	att := models.NoAttachment()
	if ev.Attachment != nil {
		att = models.AttachmentOf(*ev.Attachment)
	}
	return newEntry(*ev.Title, *ev.Message, sev, att, now), nil
}

// newEntry stamps a client-side entry with a time-ordered id.
func newEntry(title, message string, sev models.Severity, att models.Attachment, now time.Time) models.LogEntry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return models.LogEntry{
		ID:         id.String(),
		Title:      title,
		Message:    message,
		Severity:   sev,
		Attachment: att,
		Time:       now.Format(models.TimeLayout),
	}
}
