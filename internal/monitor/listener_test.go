package monitor

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-vision/vigil/internal/models"
)

func TestParsePushEvent(t *testing.T) {
	now := fixedClock()()
	tests := []struct {
		name    string
		payload string
		wantErr bool
		want    models.LogEntry
	}{
		{
			name:    "defect with attachment",
			payload: `{"title":"检测到缺陷","message":"划痕 (置信度: 0.87)","severity":"high","time":"01:02:03","attachment":"/static/a.jpg"}`,
			want: models.LogEntry{
				Title: "检测到缺陷", Message: "划痕 (置信度: 0.87)", Severity: models.SeverityHigh,
				Attachment: models.AttachmentOf("/static/a.jpg"), Time: "09:26:53",
			},
		},
		{
			name:    "null attachment",
			payload: `{"title":"系统","message":"ok","severity":"info","attachment":null}`,
			want:    models.LogEntry{Title: "系统", Message: "ok", Severity: models.SeverityInfo, Time: "09:26:53"},
		},
		{
			name:    "empty strings are kept",
			payload: `{"title":"","message":"","severity":"medium"}`,
			want:    models.LogEntry{Severity: models.SeverityMedium, Time: "09:26:53"},
		},
		{name: "missing title", payload: `{"message":"m","severity":"info"}`, wantErr: true},
		{name: "missing message", payload: `{"title":"t","severity":"info"}`, wantErr: true},
		{name: "unknown severity", payload: `{"title":"t","message":"m","severity":"fatal"}`, wantErr: true},
		{name: "invalid json", payload: `{"title":`, wantErr: true},
		{name: "not an object", payload: `"hello"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePushEvent([]byte(tt.payload), now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, perr := uuid.Parse(got.ID)
			assert.NoError(t, perr)
			got.ID = ""
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListenerSubscribesOnceAndCancelsOnce(t *testing.T) {
	ch := &fakeChannel{}
	var (
		mu  sync.Mutex
		got []models.LogEntry
	)
	l := NewListener(ch, "log_message", func(e models.LogEntry) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}, fixedClock())

	require.NoError(t, l.Start())
	require.NoError(t, l.Start())
	assert.Equal(t, 1, ch.subscribe)
	assert.Equal(t, "log_message", ch.event)

	ch.emit(`{"title":"a","message":"b","severity":"info"}`)
	ch.emit(`{"title":"a"}`)

	l.Close()
	l.Close()
	assert.Equal(t, 1, ch.cancelled)

	ch.emit(`{"title":"late","message":"b","severity":"info"}`)
	assert.Len(t, got, 1)
	assert.Error(t, l.Start(), "closed listener cannot resubscribe")
}

func TestNewEntryIDsAreTimeOrdered(t *testing.T) {
	now := fixedClock()()
	a := newEntry("t", "m", models.SeverityInfo, models.NoAttachment(), now)
	b := newEntry("t", "m", models.SeverityInfo, models.NoAttachment(), now)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, "09:26:53", a.Time)
}
