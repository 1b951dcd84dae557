package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-vision/vigil/internal/models"
)

// socketIOServer speaks just enough Engine.IO to push events.
type socketIOServer struct {
	t        *testing.T
	open     string
	upgrader websocket.Upgrader
	conns    atomic.Int32
	joined   chan *websocket.Conn
}

func newSocketIOServer(t *testing.T) (*socketIOServer, *httptest.Server) {
	s := &socketIOServer{
		t:      t,
		open:   `0{"sid":"s1","pingInterval":25000,"pingTimeout":20000}`,
		joined: make(chan *websocket.Conn, 16),
	}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *socketIOServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(s.t, "/socket.io/", r.URL.Path)
	assert.Equal(s.t, "4", r.URL.Query().Get("EIO"))
	assert.Equal(s.t, "websocket", r.URL.Query().Get("transport"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.conns.Add(1)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(s.open)); err != nil {
		return
	}
	_, msg, err := conn.ReadMessage()
	if err != nil || string(msg) != "40" {
		conn.Close()
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"n1"}`))
	select {
	case s.joined <- conn:
	default:
		conn.Close()
	}
}

func fastBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 20 * time.Millisecond
	b.MaxElapsedTime = 0
	return b
}

func newTestChannel(t *testing.T, url string) *Channel {
	t.Helper()
	ch, err := NewChannel(url, models.NewClientConfig().Channel)
	require.NoError(t, err)
	ch.backoff = fastBackOff
	return ch
}

func TestChannelURL(t *testing.T) {
	tests := []struct {
		base string
		cfg  models.ChannelConfig
		want string
	}{
		{"http://localhost:8000", models.ChannelConfig{Path: "/socket.io/", Dialect: "engineio"}, "ws://localhost:8000/socket.io/?EIO=4&transport=websocket"},
		{"https://edge.example.com/api/", models.ChannelConfig{Path: "/socket.io/", Dialect: "engineio"}, "wss://edge.example.com/api/socket.io/?EIO=4&transport=websocket"},
		{"http://10.0.0.5:9000", models.ChannelConfig{Path: "/ws", Dialect: "json"}, "ws://10.0.0.5:9000/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := channelURL(tt.base, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelDeliversEventsAndPongs(t *testing.T) {
	srv, hs := newSocketIOServer(t)
	ch := newTestChannel(t, hs.URL)

	var states []bool
	var mu sync.Mutex
	ch.OnState(func(up bool) {
		mu.Lock()
		states = append(states, up)
		mu.Unlock()
	})

	got := make(chan json.RawMessage, 4)
	cancel, err := ch.Subscribe("log_message", func(p json.RawMessage) { got <- p })
	require.NoError(t, err)

	conn := <-srv.joined
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("2")))
	_, pong, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "3", string(pong))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["other",{"x":1}]`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["log_message",{"title":"检测到缺陷","message":"m","severity":"high"}]`)))

	select {
	case p := <-got:
		assert.JSONEq(t, `{"title":"检测到缺陷","message":"m","severity":"high"}`, string(p))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, states)
}

func TestChannelReconnects(t *testing.T) {
	srv, hs := newSocketIOServer(t)
	ch := newTestChannel(t, hs.URL)

	got := make(chan json.RawMessage, 4)
	cancel, err := ch.Subscribe("log_message", func(p json.RawMessage) { got <- p })
	require.NoError(t, err)
	defer cancel()

	first := <-srv.joined
	first.Close()

	second := <-srv.joined
	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(`42["log_message",{"n":2}]`)))

	select {
	case p := <-got:
		assert.JSONEq(t, `{"n":2}`, string(p))
	case <-time.After(2 * time.Second):
		t.Fatal("event after reconnect not delivered")
	}
	assert.GreaterOrEqual(t, srv.conns.Load(), int32(2))
}

func TestChannelSubscribeValidation(t *testing.T) {
	ch := newTestChannel(t, "http://localhost:1")
	_, err := ch.Subscribe("", func(json.RawMessage) {})
	assert.Error(t, err)
	_, err = ch.Subscribe("log_message", nil)
	assert.Error(t, err)
}

func TestChannelDropsSilentServer(t *testing.T) {
	srv, hs := newSocketIOServer(t)
	srv.open = `0{"sid":"s1","pingInterval":50,"pingTimeout":50}`
	ch := newTestChannel(t, hs.URL)

	downs := make(chan struct{}, 8)
	ch.OnState(func(up bool) {
		if !up {
			downs <- struct{}{}
		}
	})

	cancel, err := ch.Subscribe("log_message", func(json.RawMessage) {})
	require.NoError(t, err)
	defer cancel()

	// The server joins and then never pings again.
	<-srv.joined
	select {
	case <-downs:
	case <-time.After(2 * time.Second):
		t.Fatal("silent connection was never dropped")
	}

	require.Eventually(t, func() bool { return srv.conns.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestChannelIdleTimeoutFromConfig(t *testing.T) {
	cfg := models.NewClientConfig().Channel
	cfg.IdleTimeout = 3 * time.Second
	ch, err := NewChannel("http://localhost:8000", cfg)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, ch.idle)
}
