package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// inbound is one decoded channel frame.
type inbound struct {
	event   string
	payload json.RawMessage
	reply   []byte // frame to write back, if any
	closing bool   // server asked to disconnect
	idle    time.Duration // new silence limit announced by the server
}

// codec turns raw WebSocket text frames into named events.
type codec interface {
	decode(frame []byte) (inbound, error)
}

var errConnectRefused = errors.New("namespace connect refused")

// engineioCodec speaks Socket.IO v5 over Engine.IO v4, websocket transport.
type engineioCodec struct{}

func (engineioCodec) decode(frame []byte) (inbound, error) {
	if len(frame) == 0 {
		return inbound{}, fmt.Errorf("empty engine.io packet")
	}
	body := frame[1:]
	switch frame[0] {
	case '0': // open: join the default namespace
		var open struct {
			PingInterval int64 `json:"pingInterval"`
			PingTimeout  int64 `json:"pingTimeout"`
		}
		if err := json.Unmarshal(body, &open); err != nil {
			return inbound{}, fmt.Errorf("decode engine.io open: %w", err)
		}
		msg := inbound{reply: []byte("40")}
		if open.PingInterval > 0 {
			msg.idle = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
		}
		return msg, nil
	case '1': // close
		return inbound{closing: true}, nil
	case '2': // ping
		return inbound{reply: append([]byte("3"), body...)}, nil
	case '3', '6': // pong, noop
		return inbound{}, nil
	case '4':
		return decodeSocketIO(body)
	}
	return inbound{}, fmt.Errorf("unknown engine.io packet type %q", frame[0])
}

func decodeSocketIO(p []byte) (inbound, error) {
	if len(p) == 0 {
		return inbound{}, fmt.Errorf("empty socket.io packet")
	}
	kind, rest := p[0], p[1:]

	// Optional namespace ("/admin,") then optional ack id digits.
	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = nil
		}
	}
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}

	switch kind {
	case '0': // connect ack
		return inbound{}, nil
	case '1': // disconnect
		return inbound{closing: true}, nil
	case '2', '5': // event, binary event (attachments ignored)
		var args []json.RawMessage
		if err := json.Unmarshal(rest, &args); err != nil {
			return inbound{}, fmt.Errorf("decode socket.io event: %w", err)
		}
		if len(args) == 0 {
			return inbound{}, fmt.Errorf("socket.io event without name")
		}
		var name string
		if err := json.Unmarshal(args[0], &name); err != nil {
			return inbound{}, fmt.Errorf("decode socket.io event name: %w", err)
		}
		msg := inbound{event: name, payload: json.RawMessage("null")}
		if len(args) > 1 {
			msg.payload = args[1]
		}
		return msg, nil
	case '3', '6': // ack, binary ack
		return inbound{}, nil
	case '4':
		return inbound{}, fmt.Errorf("%w: %s", errConnectRefused, rest)
	}
	return inbound{}, fmt.Errorf("unknown socket.io packet type %q", kind)
}

// jsonCodec reads {"event": name, "data": payload} envelopes.
type jsonCodec struct{}

func (jsonCodec) decode(frame []byte) (inbound, error) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return inbound{}, fmt.Errorf("envelope without event name")
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("null")
	}
	return inbound{event: env.Event, payload: env.Data}, nil
}

func newCodec(dialect string) (codec, error) {
	switch dialect {
	case "engineio", "":
		return engineioCodec{}, nil
	case "json":
		return jsonCodec{}, nil
	}
	return nil, fmt.Errorf("unknown channel dialect %q", dialect)
}
