package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nexus-vision/vigil/internal/backend"
	"github.com/nexus-vision/vigil/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	status   func(ctx context.Context) (*models.StatusReport, error)
	predict  func(filename string, data []byte) (*backend.PredictResult, error)
	logs     func(lines int) ([]backend.HistoryRecord, error)
	load     func() (models.InferenceSettings, error)
	save     func(s models.InferenceSettings) (*backend.SaveResult, error)
	frames   func(ctx context.Context, url string) (backend.FrameReader, error)
	saved    []models.InferenceSettings
	uploaded []string
}

func (f *fakeBackend) Status(ctx context.Context) (*models.StatusReport, error) {
	if f.status == nil {
		return &models.StatusReport{}, nil
	}
	return f.status(ctx)
}

func (f *fakeBackend) PredictImage(_ context.Context, filename string, image io.Reader) (*backend.PredictResult, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, filename)
	f.mu.Unlock()
	return f.predict(filename, data)
}

func (f *fakeBackend) RecentLogs(_ context.Context, lines int) ([]backend.HistoryRecord, error) {
	return f.logs(lines)
}

func (f *fakeBackend) LoadSettings(context.Context) (models.InferenceSettings, error) {
	return f.load()
}

func (f *fakeBackend) SaveSettings(_ context.Context, s models.InferenceSettings) (*backend.SaveResult, error) {
	f.mu.Lock()
	f.saved = append(f.saved, s)
	f.mu.Unlock()
	return f.save(s)
}

func (f *fakeBackend) StreamURL() string { return "http://backend.test/video_feed" }

func (f *fakeBackend) OpenFrames(ctx context.Context, url string) (backend.FrameReader, error) {
	if f.frames == nil {
		return blockingFrames{ctx: ctx}, nil
	}
	return f.frames(ctx, url)
}

// blockingFrames never yields a frame until its context ends.
type blockingFrames struct{ ctx context.Context }

func (b blockingFrames) Next() (backend.Frame, error) {
	<-b.ctx.Done()
	return backend.Frame{}, b.ctx.Err()
}

func (b blockingFrames) Close() error { return nil }

// scriptedFrames yields n frames, then returns err (or blocks when err is nil).
type scriptedFrames struct {
	ctx  context.Context
	n    int
	err  error
	sent int
}

func (s *scriptedFrames) Next() (backend.Frame, error) {
	if s.sent < s.n {
		s.sent++
		return backend.Frame{ContentType: "image/jpeg", Size: 1024}, nil
	}
	if s.err != nil {
		return backend.Frame{}, s.err
	}
	<-s.ctx.Done()
	return backend.Frame{}, s.ctx.Err()
}

func (s *scriptedFrames) Close() error { return nil }

type fakeChannel struct {
	mu        sync.Mutex
	event     string
	handler   func(json.RawMessage)
	subscribe int
	cancelled int
}

func (c *fakeChannel) Subscribe(event string, h func(json.RawMessage)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event == "" {
		return nil, errors.New("empty event")
	}
	c.event = event
	c.handler = h
	c.subscribe++
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cancelled++
	}, nil
}

func (c *fakeChannel) emit(payload string) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	h(json.RawMessage(payload))
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	return func() time.Time { return t }
}

func testConfig() *models.ClientConfig {
	cfg := models.NewClientConfig()
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func writeTemp(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0jpeg"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
