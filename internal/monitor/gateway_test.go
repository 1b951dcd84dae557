package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-vision/vigil/internal/backend"
	"github.com/nexus-vision/vigil/internal/models"
)

type recorder struct{ entries []models.LogEntry }

func (r *recorder) report(e models.LogEntry) { r.entries = append(r.entries, e) }

func strPtr(s string) *string { return &s }

func TestGatewaySubmitImage(t *testing.T) {
	tests := []struct {
		name      string
		result    *backend.PredictResult
		err       error
		wantTitle string
		wantMsg   string
		wantSev   models.Severity
		wantAtt   string
	}{
		{
			name:      "annotated image",
			result:    &backend.PredictResult{ImageURL: "/static/result_x.jpg", Detections: 2},
			wantTitle: "调试", wantMsg: "图片检测完成", wantSev: models.SeverityMedium, wantAtt: "/static/result_x.jpg",
		},
		{
			name:      "no image url",
			result:    &backend.PredictResult{Message: "done"},
			wantTitle: "错误", wantMsg: "未返回图片地址", wantSev: models.SeverityHigh,
		},
		{
			name:      "http failure",
			err:       &backend.StatusError{Code: 500, Status: "500 Internal Server Error"},
			wantTitle: "错误", wantMsg: "上传失败: 500 Internal Server Error", wantSev: models.SeverityHigh,
		},
		{
			name:      "transport failure",
			err:       errors.New("connection refused"),
			wantTitle: "错误", wantMsg: "连接失败: connection refused", wantSev: models.SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			b := &fakeBackend{predict: func(string, []byte) (*backend.PredictResult, error) { return tt.result, tt.err }}
			g := NewGateway(b, 50, rec.report, fixedClock())

			att, err := g.SubmitImage(context.Background(), "part.jpg", strings.NewReader("jpeg"))

			require.Len(t, rec.entries, 1)
			e := rec.entries[0]
			assert.Equal(t, tt.wantTitle, e.Title)
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.Equal(t, tt.wantSev, e.Severity)

			url, ok := att.URL()
			if tt.wantAtt == "" {
				assert.Error(t, err)
				assert.False(t, ok)
				assert.False(t, e.Attachment.Present())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAtt, url)
			assert.Equal(t, att, e.Attachment)
		})
	}
}

func TestGatewaySaveSettings(t *testing.T) {
	conf := 0.5
	tests := []struct {
		name    string
		result  *backend.SaveResult
		err     error
		wantMsg string
		wantAck models.InferenceSettings
	}{
		{
			name:    "updated",
			result:  &backend.SaveResult{Status: "updated"},
			wantMsg: "系统参数已保存",
			wantAck: models.InferenceSettings{ConfidenceThreshold: 0.4, InferenceResolution: 640},
		},
		{
			name:    "updated with echo",
			result:  &backend.SaveResult{Status: "updated", Conf: &conf},
			wantMsg: "系统参数已保存",
			wantAck: models.InferenceSettings{ConfidenceThreshold: 0.5, InferenceResolution: 640},
		},
		{name: "rejected", result: &backend.SaveResult{Status: "error"}, wantMsg: "保存失败"},
		{name: "error status", err: &backend.StatusError{Code: 422}, wantMsg: "保存失败"},
		{name: "transport", err: errors.New("timeout"), wantMsg: "保存异常: timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			b := &fakeBackend{save: func(models.InferenceSettings) (*backend.SaveResult, error) { return tt.result, tt.err }}
			g := NewGateway(b, 50, rec.report, fixedClock())

			ack, err := g.SaveSettings(context.Background(), models.InferenceSettings{ConfidenceThreshold: 0.4, InferenceResolution: 640})

			require.Len(t, rec.entries, 1)
			assert.Equal(t, tt.wantMsg, rec.entries[0].Message)
			if tt.wantAck == (models.InferenceSettings{}) {
				assert.Error(t, err)
				assert.Equal(t, models.SeverityHigh, rec.entries[0].Severity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAck, ack)
			assert.Equal(t, "配置", rec.entries[0].Title)
			assert.Equal(t, models.SeverityInfo, rec.entries[0].Severity)
		})
	}
}

func TestGatewayFetchLogs(t *testing.T) {
	rec := &recorder{}
	var asked int
	b := &fakeBackend{logs: func(lines int) ([]backend.HistoryRecord, error) {
		asked = lines
		return []backend.HistoryRecord{
			{Title: "检测到缺陷", Message: "a", Severity: "warning", Time: "10:00:02", Attachment: strPtr("/static/a.jpg")},
			{Title: "", Message: "skipped", Severity: "info", Time: "10:00:01"},
			{Title: "系统", Message: "b", Severity: "ERROR", Time: "10:00:00"},
		}, nil
	}}
	g := NewGateway(b, 20, rec.report, fixedClock())

	entries, err := g.FetchLogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, asked)
	assert.Empty(t, rec.entries, "success reports nothing")
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"0", "1"}, ids(entries))
	assert.Equal(t, models.SeverityMedium, entries[0].Severity)
	assert.Equal(t, models.SeverityHigh, entries[1].Severity)
	assert.Equal(t, "10:00:02", entries[0].Time)
	assert.True(t, entries[0].Attachment.Present())

	b.logs = func(int) ([]backend.HistoryRecord, error) { return nil, errors.New("no such file") }
	_, err = g.FetchLogs(context.Background())
	assert.Error(t, err)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "日志获取失败: no such file", rec.entries[0].Message)
}

func TestGatewayLoadSettingsFailure(t *testing.T) {
	rec := &recorder{}
	b := &fakeBackend{load: func() (models.InferenceSettings, error) {
		return models.InferenceSettings{}, errors.New("refused")
	}}
	g := NewGateway(b, 50, rec.report, fixedClock())

	_, err := g.LoadSettings(context.Background())
	assert.Error(t, err)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "读取配置失败: refused", rec.entries[0].Message)
}
