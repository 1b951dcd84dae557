package backend

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineIOCodec(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantEvent string
		wantData  string
		wantReply string
		closing   bool
		wantErr   bool
	}{
		{name: "open joins namespace", frame: `0{"sid":"abc","pingInterval":25000}`, wantReply: "40"},
		{name: "ping", frame: "2", wantReply: "3"},
		{name: "ping with payload", frame: "2hello", wantReply: "3hello"},
		{name: "pong ignored", frame: "3"},
		{name: "close", frame: "1", closing: true},
		{name: "connect ack", frame: `40{"sid":"xyz"}`},
		{
			name:      "event",
			frame:     `42["log_message",{"title":"检测到缺陷","message":"m","severity":"high"}]`,
			wantEvent: "log_message",
			wantData:  `{"title":"检测到缺陷","message":"m","severity":"high"}`,
		},
		{
			name:      "event with namespace and ack id",
			frame:     `42/ops,17["log_message",{"a":1}]`,
			wantEvent: "log_message",
			wantData:  `{"a":1}`,
		},
		{name: "event without args", frame: `42["tick"]`, wantEvent: "tick", wantData: "null"},
		{name: "server disconnect", frame: "41", closing: true},
		{name: "empty", frame: "", wantErr: true},
		{name: "unknown type", frame: "9", wantErr: true},
		{name: "bad event json", frame: `42["log_message",`, wantErr: true},
		{name: "event name not string", frame: `42[1,{}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := engineioCodec{}.decode([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEvent, msg.event)
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(msg.payload))
			}
			assert.Equal(t, tt.wantReply, string(msg.reply))
			assert.Equal(t, tt.closing, msg.closing)
		})
	}
}

func TestEngineIOOpenSetsIdleWindow(t *testing.T) {
	msg, err := engineioCodec{}.decode([]byte(`0{"sid":"abc","pingInterval":25000,"pingTimeout":20000}`))
	require.NoError(t, err)
	assert.Equal(t, "40", string(msg.reply))
	assert.Equal(t, 45*time.Second, msg.idle)

	msg, err = engineioCodec{}.decode([]byte(`0{"sid":"abc"}`))
	require.NoError(t, err)
	assert.Zero(t, msg.idle)

	_, err = engineioCodec{}.decode([]byte(`0{"sid":`))
	assert.Error(t, err)
}

func TestEngineIOConnectError(t *testing.T) {
	_, err := engineioCodec{}.decode([]byte(`44{"message":"Not authorized"}`))
	assert.True(t, errors.Is(err, errConnectRefused))
}

func TestJSONCodec(t *testing.T) {
	msg, err := jsonCodec{}.decode([]byte(`{"event":"log_message","data":{"title":"t"}}`))
	require.NoError(t, err)
	assert.Equal(t, "log_message", msg.event)
	assert.JSONEq(t, `{"title":"t"}`, string(msg.payload))

	msg, err = jsonCodec{}.decode([]byte(`{"event":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(msg.payload))

	_, err = jsonCodec{}.decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = jsonCodec{}.decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewCodec(t *testing.T) {
	for _, d := range []string{"", "engineio", "json"} {
		_, err := newCodec(d)
		assert.NoError(t, err, d)
	}
	_, err := newCodec("mqtt")
	assert.Error(t, err)
}
