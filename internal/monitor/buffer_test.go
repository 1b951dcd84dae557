package monitor

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-vision/vigil/internal/models"
)

func entry(id int) models.LogEntry {
	return models.LogEntry{ID: strconv.Itoa(id), Title: "t", Message: "m", Severity: models.SeverityInfo}
}

func ids(entries []models.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestEventBufferAppend(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		appended int
		wantLen  int
		wantHead string
		wantTail string
	}{
		{name: "below capacity", capacity: 5, appended: 3, wantLen: 3, wantHead: "2", wantTail: "0"},
		{name: "exactly full", capacity: 5, appended: 5, wantLen: 5, wantHead: "4", wantTail: "0"},
		{name: "evicts oldest", capacity: 5, appended: 8, wantLen: 5, wantHead: "7", wantTail: "3"},
		{name: "capacity one", capacity: 1, appended: 3, wantLen: 1, wantHead: "2", wantTail: "2"},
		{name: "default max", capacity: 50, appended: 51, wantLen: 50, wantHead: "50", wantTail: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewEventBuffer(tt.capacity)
			for i := 0; i < tt.appended; i++ {
				b.Append(entry(i))
			}
			got := b.Entries()
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantHead, got[0].ID)
			assert.Equal(t, tt.wantTail, got[len(got)-1].ID)
		})
	}
}

func TestEventBufferCapacityClamp(t *testing.T) {
	assert.Equal(t, 1, NewEventBuffer(0).Cap())
	assert.Equal(t, models.MaxBufferCapacity, NewEventBuffer(500).Cap())
}

func TestEventBufferReplaceTruncates(t *testing.T) {
	b := NewEventBuffer(3)
	b.Append(entry(99))

	b.Replace([]models.LogEntry{entry(0), entry(1), entry(2), entry(3)})
	assert.Equal(t, []string{"0", "1", "2"}, ids(b.Entries()))

	b.Replace(nil)
	assert.Equal(t, 0, b.Len())
	_, ok := b.Newest()
	assert.False(t, ok)
}

func TestEventBufferEntriesIsCopy(t *testing.T) {
	b := NewEventBuffer(3)
	b.Append(entry(1))

	got := b.Entries()
	got[0].Title = "changed"

	newest, ok := b.Newest()
	assert.True(t, ok)
	assert.Equal(t, "t", newest.Title)
}
