package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/nexus-vision/vigil/internal/backend"
	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/observability"
)

// Outcome titles and messages shown to the operator.
const (
	titleDebug  = "调试"
	titleError  = "错误"
	titleConfig = "配置"

	msgImageDone     = "图片检测完成"
	msgNoImageURL    = "未返回图片地址"
	msgUploadFailed  = "上传失败: "
	msgConnectFailed = "连接失败: "
	msgSaved         = "系统参数已保存"
	msgSaveFailed    = "保存失败"
	msgSaveError     = "保存异常: "
	msgHistoryFailed = "日志获取失败: "
	msgLoadFailed    = "读取配置失败: "
)

var (
	// ErrSaveInFlight is returned when a save is requested while another
	// one has not completed.
	ErrSaveInFlight = errors.New("settings save already in progress")

	errNoImageURL = errors.New("no image url returned")
	errNotUpdated = errors.New("settings not updated")
)

// Backend is the request/response side of the inference service.
type Backend interface {
	Status(ctx context.Context) (*models.StatusReport, error)
	PredictImage(ctx context.Context, filename string, image io.Reader) (*backend.PredictResult, error)
	RecentLogs(ctx context.Context, lines int) ([]backend.HistoryRecord, error)
	LoadSettings(ctx context.Context) (models.InferenceSettings, error)
	SaveSettings(ctx context.Context, s models.InferenceSettings) (*backend.SaveResult, error)
	StreamURL() string
	OpenFrames(ctx context.Context, rawURL string) (backend.FrameReader, error)
}

// Gateway performs operator-initiated requests. Every call reports at most
// one outcome entry through report.
type Gateway struct {
	backend      Backend
	report       func(models.LogEntry)
	historyLines int
	now          func() time.Time
}

// NewGateway creates a gateway writing outcomes to report.
func NewGateway(b Backend, historyLines int, report func(models.LogEntry), now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	return &Gateway{backend: b, report: report, historyLines: historyLines, now: now}
}

func (g *Gateway) fail(title, message string) {
	g.report(newEntry(title, message, models.SeverityHigh, models.NoAttachment(), g.now()))
}

func observe(action string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.Actions.WithLabelValues(action, result).Inc()
	observability.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// SubmitImage uploads an image for inference and returns the annotated
// result reference.
func (g *Gateway) SubmitImage(ctx context.Context, filename string, image io.Reader) (att models.Attachment, err error) {
	start := time.Now()
	defer func() { observe("submit_image", start, err) }()

	res, err := g.backend.PredictImage(ctx, filename, image)
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) {
			g.fail(titleError, msgUploadFailed+se.Error())
		} else {
			g.fail(titleError, msgConnectFailed+err.Error())
		}
		log.Printf("[gateway] submit %s failed: %v", filename, err)
		return models.NoAttachment(), fmt.Errorf("submit image: %w", err)
	}

	att = models.AttachmentOf(res.ImageURL)
	if !att.Present() {
		g.fail(titleError, msgNoImageURL)
		return models.NoAttachment(), errNoImageURL
	}
	g.report(newEntry(titleDebug, msgImageDone, models.SeverityMedium, att, g.now()))
	return att, nil
}

// FetchLogs retrieves the backend history. The result is meant to replace
// the buffer wholesale; ids are the list position.
func (g *Gateway) FetchLogs(ctx context.Context) (entries []models.LogEntry, err error) {
	start := time.Now()
	defer func() { observe("fetch_logs", start, err) }()

	records, err := g.backend.RecentLogs(ctx, g.historyLines)
	if err != nil {
		g.fail(titleError, msgHistoryFailed+err.Error())
		log.Printf("[gateway] fetch logs failed: %v", err)
		return nil, fmt.Errorf("fetch logs: %w", err)
	}
	return historyEntries(records), nil
}

func historyEntries(records []backend.HistoryRecord) []models.LogEntry {
	entries := make([]models.LogEntry, 0, len(records))
	for _, r := range records {
		if r.Title == "" || r.Message == "" {
			continue
		}
		att := models.NoAttachment()
		if r.Attachment != nil {
			att = models.AttachmentOf(*r.Attachment)
		}
		entries = append(entries, models.LogEntry{
			ID:         strconv.Itoa(len(entries)),
			Title:      r.Title,
			Message:    r.Message,
			Severity:   models.NormalizeSeverity(r.Severity),
			Attachment: att,
			Time:       r.Time,
		})
	}
	return entries
}

// LoadSettings reads the backend's current settings.
func (g *Gateway) LoadSettings(ctx context.Context) (s models.InferenceSettings, err error) {
	start := time.Now()
	defer func() { observe("load_settings", start, err) }()

	s, err = g.backend.LoadSettings(ctx)
	if err != nil {
		g.fail(titleError, msgLoadFailed+err.Error())
		log.Printf("[gateway] load settings failed: %v", err)
		return models.InferenceSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// SaveSettings posts s and returns the values the backend now holds.
func (g *Gateway) SaveSettings(ctx context.Context, s models.InferenceSettings) (ack models.InferenceSettings, err error) {
	start := time.Now()
	defer func() { observe("save_settings", start, err) }()

	res, err := g.backend.SaveSettings(ctx, s)
	if errors.Is(err, backend.ErrUnexpectedStatus) {
		// An error status carries no acknowledgement; same as a rejection.
		g.fail(titleError, msgSaveFailed)
		log.Printf("[gateway] save settings rejected: %v", err)
		return models.InferenceSettings{}, fmt.Errorf("save settings: %w", err)
	}
	if err != nil {
		g.fail(titleError, msgSaveError+err.Error())
		log.Printf("[gateway] save settings failed: %v", err)
		return models.InferenceSettings{}, fmt.Errorf("save settings: %w", err)
	}
	if !res.Updated() {
		g.fail(titleError, msgSaveFailed)
		log.Printf("[gateway] save settings rejected: status=%q", res.Status)
		return models.InferenceSettings{}, errNotUpdated
	}

	ack = s
	if res.Conf != nil {
		ack.ConfidenceThreshold = *res.Conf
	}
	if res.Imgsz != nil {
		ack.InferenceResolution = *res.Imgsz
	}
	g.report(newEntry(titleConfig, msgSaved, models.SeverityInfo, models.NoAttachment(), g.now()))
	return ack, nil
}
