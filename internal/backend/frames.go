package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// maxFrameBytes caps a single decoded frame.
const maxFrameBytes = 16 << 20

// ErrFrameTooLarge is returned when a frame exceeds the size cap.
var ErrFrameTooLarge = errors.New("frame too large")

// Frame is one image of the live stream.
type Frame struct {
	ContentType string
	Size        int
}

// FrameStream reads frames from a multipart/x-mixed-replace response, or
// a single frame from a plain image response.
type FrameStream struct {
	body   io.ReadCloser
	mr     *multipart.Reader
	single string // content type when the response is one image
	done   bool
	limit  int64
}

// OpenStream requests the live video resource at rawURL.
// The stream stays open until ctx is cancelled or Close is called.
func (c *Client) OpenStream(ctx context.Context, rawURL string) (*FrameStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("parse content type: %w", err)
	}

	s := &FrameStream{body: resp.Body, limit: maxFrameBytes}
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			resp.Body.Close()
			return nil, fmt.Errorf("multipart stream without boundary")
		}
		s.mr = multipart.NewReader(resp.Body, boundary)
	case strings.HasPrefix(mediaType, "image/"):
		s.single = mediaType
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unsupported stream type %q", mediaType)
	}
	return s, nil
}

// Next blocks until the next frame is fully received.
func (s *FrameStream) Next() (Frame, error) {
	if s.mr == nil {
		if s.done {
			return Frame{}, io.EOF
		}
		s.done = true
		n, err := s.drain(s.body)
		if err != nil {
			return Frame{}, err
		}
		if n == 0 {
			return Frame{}, fmt.Errorf("empty image")
		}
		return Frame{ContentType: s.single, Size: int(n)}, nil
	}

	part, err := s.mr.NextPart()
	if err != nil {
		return Frame{}, err
	}
	defer part.Close()

	n, err := s.drain(part)
	if err != nil {
		return Frame{}, err
	}
	if n == 0 {
		return Frame{}, fmt.Errorf("empty frame")
	}
	return Frame{ContentType: part.Header.Get("Content-Type"), Size: int(n)}, nil
}

// drain consumes r and returns its length, failing once it passes the cap.
func (s *FrameStream) drain(r io.Reader) (int64, error) {
	n, err := io.Copy(io.Discard, io.LimitReader(r, s.limit+1))
	if err != nil {
		return n, err
	}
	if n > s.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFrameTooLarge, s.limit)
	}
	return n, nil
}

// FrameReader yields frames until the resource fails or ends.
type FrameReader interface {
	Next() (Frame, error)
	Close() error
}

// OpenFrames is OpenStream behind the FrameReader interface.
func (c *Client) OpenFrames(ctx context.Context, rawURL string) (FrameReader, error) {
	s, err := c.OpenStream(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *FrameStream) Close() error {
	return s.body.Close()
}
