// Package sio encodes and decodes the Engine.IO v4 / Socket.IO v5 text frames
// the tracker speaks over its websocket transport.
package sio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// EngineType is the first byte of every Engine.IO frame.
type EngineType byte

const (
	EngineOpen    EngineType = '0'
	EngineClose   EngineType = '1'
	EnginePing    EngineType = '2'
	EnginePong    EngineType = '3'
	EngineMessage EngineType = '4'
	EngineUpgrade EngineType = '5'
	EngineNoop    EngineType = '6'
)

// SocketType is the first byte of a Socket.IO packet carried in an Engine.IO
// message frame.
type SocketType byte

const (
	SocketConnect      SocketType = '0'
	SocketDisconnect   SocketType = '1'
	SocketEvent        SocketType = '2'
	SocketAck          SocketType = '3'
	SocketConnectError SocketType = '4'
)

var (
	ErrEmptyFrame    = errors.New("sio: empty frame")
	ErrUnknownPacket = errors.New("sio: unknown packet type")
)

// Handshake is the Engine.IO open payload.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Liveness is how long the transport may stay silent before it is considered
// lost: one ping interval plus the ping timeout.
func (h Handshake) Liveness() time.Duration {
	return time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
}

// Frame is one decoded websocket text frame.
type Frame struct {
	Engine EngineType
	// Socket is set only for EngineMessage frames.
	Socket SocketType
	// Data is whatever followed the type bytes (and namespace, for socket packets).
	Data []byte
}

// Endpoint turns a tracker base URL (http, https, ws or wss) into the
// websocket-only Engine.IO URL.
func Endpoint(base string) (string, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return "", fmt.Errorf("tracker url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse tracker url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported tracker url scheme %q", u.Scheme)
	}
	u.Path = "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Parse decodes one text frame. Namespaced socket packets ("/ns,...") are
// accepted; the namespace is dropped because the client only joins "/".
func Parse(frame []byte) (Frame, error) {
	if len(frame) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	f := Frame{Engine: EngineType(frame[0]), Data: frame[1:]}
	switch f.Engine {
	case EngineOpen, EngineClose, EnginePing, EnginePong, EngineUpgrade, EngineNoop:
		return f, nil
	case EngineMessage:
	default:
		return Frame{}, fmt.Errorf("%w: engine %q", ErrUnknownPacket, frame[0])
	}
	if len(f.Data) == 0 {
		return Frame{}, fmt.Errorf("%w: empty socket packet", ErrEmptyFrame)
	}
	f.Socket = SocketType(f.Data[0])
	rest := f.Data[1:]
	switch f.Socket {
	case SocketConnect, SocketDisconnect, SocketEvent, SocketAck, SocketConnectError:
	default:
		return Frame{}, fmt.Errorf("%w: socket %q", ErrUnknownPacket, f.Data[0])
	}
	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = nil
		}
	}
	f.Data = rest
	return f, nil
}

// ParseHandshake decodes the payload of an EngineOpen frame.
func ParseHandshake(data []byte) (Handshake, error) {
	var h Handshake
	if err := json.Unmarshal(data, &h); err != nil {
		return Handshake{}, fmt.Errorf("decode handshake: %w", err)
	}
	return h, nil
}

// ParseEvent splits an event packet body into its name and first argument.
// A leading ack id is skipped.
func ParseEvent(data []byte) (string, json.RawMessage, error) {
	i := 0
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	var args []json.RawMessage
	if err := json.Unmarshal(data[i:], &args); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("decode event: missing name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	var payload json.RawMessage
	if len(args) > 1 {
		payload = args[1]
	}
	return name, payload, nil
}

// ConnectErrorMessage extracts the message of a connect_error packet.
func ConnectErrorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "connect error"
}

// EncodeEvent builds a "42[...]" frame. A nil payload emits the bare event name.
func EncodeEvent(name string, payload any) ([]byte, error) {
	args := []any{name}
	if payload != nil {
		args = append(args, payload)
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, byte(EngineMessage), byte(SocketEvent))
	return append(frame, body...), nil
}

// Frames the client sends without payload.
var (
	ConnectFrame    = []byte{byte(EngineMessage), byte(SocketConnect)}
	DisconnectFrame = []byte{byte(EngineMessage), byte(SocketDisconnect)}
	PongFrame       = []byte{byte(EnginePong)}
)
