// Package monitor reconciles the push channel, the status poll and operator
// actions into a single view model.
package monitor

import (
	"sync"

	"github.com/nexus-vision/vigil/internal/models"
)

// EventBuffer is a bounded, newest-first list of log entries.
// All writers go through Append or Replace.
type EventBuffer struct {
	mu       sync.Mutex
	entries  []models.LogEntry // newest first
	capacity int
}

// NewEventBuffer creates a buffer holding at most capacity entries,
// clamped to [1, models.MaxBufferCapacity].
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > models.MaxBufferCapacity {
		capacity = models.MaxBufferCapacity
	}
	return &EventBuffer{
		entries:  make([]models.LogEntry, 0, capacity),
		capacity: capacity,
	}
}

// Append inserts e as the newest entry, evicting the oldest beyond capacity.
func (b *EventBuffer) Append(e models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, models.LogEntry{})
	}
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
}

// Replace discards the current contents in favour of entries (newest
// first). Entries beyond capacity are cut from the old end.
func (b *EventBuffer) Replace(entries []models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(entries)
	if n > b.capacity {
		n = b.capacity
	}
	b.entries = append(b.entries[:0], entries[:n]...)
}

// Entries returns a copy of the buffer, newest first.
func (b *EventBuffer) Entries() []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Newest returns the most recent entry.
func (b *EventBuffer) Newest() (models.LogEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return models.LogEntry{}, false
	}
	return b.entries[0], true
}

// Len returns the number of entries held.
func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Cap returns the fixed capacity.
func (b *EventBuffer) Cap() int { return b.capacity }
