package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/nexus-vision/vigil/internal/models"
)

// Handler receives the payload of one named event.
type Handler = func(payload json.RawMessage)

// Channel is the persistent push connection to the backend.
//
// The connection is opened when the first subscription is made and closed
// when the last one is cancelled. While open, dropped connections are
// re-dialled with exponential backoff.
type Channel struct {
	url     string
	codec   codec
	dialer  *websocket.Dialer
	backoff func() backoff.BackOff
	idle    time.Duration

	mu       sync.Mutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	cancel   context.CancelFunc
	done     chan struct{}
	onState  func(connected bool)
}

// NewChannel builds the WebSocket URL for cfg relative to baseURL.
func NewChannel(baseURL string, cfg models.ChannelConfig) (*Channel, error) {
	c, err := newCodec(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	u, err := channelURL(baseURL, cfg)
	if err != nil {
		return nil, err
	}
	return &Channel{
		url:      u,
		codec:    c,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff:  defaultBackOff,
		idle:     cfg.IdleTimeout,
		handlers: make(map[string]map[uint64]Handler),
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 0 // retry for as long as someone is subscribed
	return b
}

func channelURL(baseURL string, cfg models.ChannelConfig) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + cfg.Path
	if cfg.Dialect == "engineio" || cfg.Dialect == "" {
		q := u.Query()
		q.Set("EIO", "4")
		q.Set("transport", "websocket")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// URL returns the WebSocket endpoint.
func (c *Channel) URL() string { return c.url }

// OnState registers a callback for connection up/down transitions.
// It must be set before the first Subscribe.
func (c *Channel) OnState(fn func(connected bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Subscribe registers h for event and returns the handle that removes it.
// The returned cancel function is safe to call more than once.
func (c *Channel) Subscribe(event string, h Handler) (func(), error) {
	if event == "" || h == nil {
		return nil, errors.New("subscribe: event and handler are required")
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = h
	if c.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.done = make(chan struct{})
		go c.run(ctx, c.done)
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(event, id) })
	}, nil
}

func (c *Channel) unsubscribe(event string, id uint64) {
	c.mu.Lock()
	delete(c.handlers[event], id)
	if len(c.handlers[event]) == 0 {
		delete(c.handlers, event)
	}
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	if len(c.handlers) == 0 && c.cancel != nil {
		cancel, done = c.cancel, c.done
		c.cancel, c.done = nil, nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	b := c.backoff()
	op := func() error {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		b.Reset()
		c.setState(true)
		err = c.serve(ctx, conn)
		c.setState(false)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Printf("[channel] %s: %v (retry in %s)", c.url, err, next.Round(time.Millisecond))
	}

	for ctx.Err() == nil {
		_ = backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	}
}

func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = conn.Close()
	}()

	// Every inbound frame re-arms the read deadline, so a peer that stops
	// pinging fails the read instead of hanging it.
	idle := c.idle
	arm := func() {
		if idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
	}
	arm()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := c.codec.decode(data)
		if err == nil && msg.idle > 0 {
			idle = msg.idle
		}
		arm()
		if err != nil {
			if errors.Is(err, errConnectRefused) {
				return err
			}
			log.Printf("[channel] dropping frame: %v", err)
			continue
		}
		if len(msg.reply) > 0 {
			if err := conn.WriteMessage(websocket.TextMessage, msg.reply); err != nil {
				return err
			}
		}
		if msg.closing {
			return errors.New("server closed the session")
		}
		if msg.event != "" {
			c.dispatch(msg.event, msg.payload)
		}
	}
}

func (c *Channel) dispatch(event string, payload json.RawMessage) {
	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[event]))
	for _, h := range c.handlers[event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(payload)
	}
}

func (c *Channel) setState(connected bool) {
	c.mu.Lock()
	fn := c.onState
	c.mu.Unlock()
	if fn != nil {
		fn(connected)
	}
}
