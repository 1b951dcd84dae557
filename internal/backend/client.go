// Package backend is the HTTP and WebSocket client for the inference service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nexus-vision/vigil/internal/buildinfo"
	"github.com/nexus-vision/vigil/internal/models"
)

// ErrUnexpectedStatus matches any *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// Client talks to the inference service's HTTP endpoints.
type Client struct {
	baseURL    string
	streamPath string
	timeout    time.Duration
	http       *http.Client
}

// NewClient creates a client for cfg.BackendURL.
func NewClient(cfg *models.ClientConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BackendURL, "/"),
		streamPath: cfg.StreamPath,
		timeout:    cfg.RequestTimeout,
		// No client-wide timeout: the video stream is unbounded. API calls
		// carry their own deadline.
		http: &http.Client{},
	}
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// StreamURL returns the live video resource.
func (c *Client) StreamURL() string { return c.baseURL + c.streamPath }

// PredictResult is the answer to an image submission.
type PredictResult struct {
	ImageURL   string `json:"image_url"`
	Detections int    `json:"detections"`
	Message    string `json:"message"`
}

// HistoryRecord is one line of the backend's event history.
type HistoryRecord struct {
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
	Time       string  `json:"time"`
	Attachment *string `json:"attachment,omitempty"`
}

// SaveResult is the backend's answer to a settings update.
type SaveResult struct {
	Status string   `json:"status"`
	Conf   *float64 `json:"conf,omitempty"`
	Imgsz  *int     `json:"imgsz,omitempty"`
}

// Updated reports whether the backend acknowledged the update.
func (r *SaveResult) Updated() bool { return r != nil && r.Status == "updated" }

// Status polls GET /status.
func (c *Client) Status(ctx context.Context) (*models.StatusReport, error) {
	var report models.StatusReport
	if err := c.getJSON(ctx, "/status", nil, &report); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &report, nil
}

// PredictImage uploads an image as multipart field "file".
func (c *Client) PredictImage(ctx context.Context, filename string, image io.Reader) (*PredictResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var result PredictResult
	if err := c.do(ctx, http.MethodPost, "/predict/image", nil, w.FormDataContentType(), &body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecentLogs fetches up to lines history records, newest first.
func (c *Client) RecentLogs(ctx context.Context, lines int) ([]HistoryRecord, error) {
	q := url.Values{}
	q.Set("lines", strconv.Itoa(lines))

	var resp struct {
		Logs  []HistoryRecord `json:"logs"`
		Error string          `json:"error,omitempty"`
	}
	if err := c.getJSON(ctx, "/logs", q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("backend: %s", resp.Error)
	}
	return resp.Logs, nil
}

// LoadSettings reads the detector settings.
func (c *Client) LoadSettings(ctx context.Context) (models.InferenceSettings, error) {
	var s models.InferenceSettings
	if err := c.getJSON(ctx, "/config/settings", nil, &s); err != nil {
		return models.InferenceSettings{}, err
	}
	return s, nil
}

// SaveSettings posts new detector settings.
func (c *Client) SaveSettings(ctx context.Context, s models.InferenceSettings) (*SaveResult, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	var result SaveResult
	if err := c.do(ctx, http.MethodPost, "/config/settings", nil, "application/json", bytes.NewReader(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, q, "", nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, contentType string, body io.Reader, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vigil/"+buildinfo.Version)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
