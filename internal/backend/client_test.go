package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-vision/vigil/internal/models"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := models.NewClientConfig()
	cfg.BackendURL = srv.URL + "/"
	cfg.RequestTimeout = 2 * time.Second
	return NewClient(cfg)
}

func TestClientStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.UserAgent(), "vigil/"))
		_, _ = io.WriteString(w, `{"camera_connected":true,"model_loaded":true,"device":"cuda"}`)
	}))

	report, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, report.CameraConnected)
	assert.True(t, report.ModelLoaded)
	assert.Equal(t, "cuda", report.Device)
	assert.Nil(t, report.FPS)
}

func TestClientPredictImage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict/image", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "part.jpg", hdr.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))
		_, _ = io.WriteString(w, `{"message":"Detection complete","detections":2,"image_url":"/static/result_part.jpg"}`)
	}))

	res, err := c.PredictImage(context.Background(), "part.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/static/result_part.jpg", res.ImageURL)
	assert.Equal(t, 2, res.Detections)
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.PredictImage(context.Background(), "x.jpg", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "500 Internal Server Error", se.Error())
}

func TestClientRecentLogs(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "records", body: `{"logs":[{"title":"a","message":"b","severity":"high","time":"10:00:00","attachment":"/static/a.jpg"},{"title":"c","message":"d","severity":"info","time":"09:59:59"}]}`, want: 2},
		{name: "empty", body: `{"logs":[]}`, want: 0},
		{name: "backend error", body: `{"logs":[],"error":"log file missing"}`, wantErr: true},
		{name: "garbage", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "25", r.URL.Query().Get("lines"))
				_, _ = io.WriteString(w, tt.body)
			}))
			logs, err := c.RecentLogs(context.Background(), 25)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, logs, tt.want)
		})
	}
}

func TestClientSettingsRoundTrip(t *testing.T) {
	stored := models.InferenceSettings{ConfidenceThreshold: 0.25, InferenceResolution: 640}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/config/settings", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(stored)
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "updated", "conf": stored.ConfidenceThreshold, "imgsz": stored.InferenceResolution})
		}
	}))

	res, err := c.SaveSettings(context.Background(), models.InferenceSettings{ConfidenceThreshold: 0.4, InferenceResolution: 640})
	require.NoError(t, err)
	assert.True(t, res.Updated())
	require.NotNil(t, res.Conf)
	assert.Equal(t, 0.4, *res.Conf)

	got, err := c.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.InferenceSettings{ConfidenceThreshold: 0.4, InferenceResolution: 640}, got)
}

func TestClientRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)
	c.timeout = 20 * time.Millisecond

	_, err := c.Status(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
