package sio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:5001", "ws://localhost:5001/socket.io/?EIO=4&transport=websocket"},
		{"localhost:5001", "ws://localhost:5001/socket.io/?EIO=4&transport=websocket"},
		{"https://tracker.example/ignored?x=1", "wss://tracker.example/socket.io/?EIO=4&transport=websocket"},
		{"ws://10.0.0.2:5001", "ws://10.0.0.2:5001/socket.io/?EIO=4&transport=websocket"},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := Endpoint("  ")
	assert.Error(t, err)
	_, err = Endpoint("ftp://tracker")
	assert.Error(t, err)
}

func TestParse_EngineFrames(t *testing.T) {
	f, err := Parse([]byte(`0{"sid":"abc","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	require.NoError(t, err)
	assert.Equal(t, EngineOpen, f.Engine)

	h, err := ParseHandshake(f.Data)
	require.NoError(t, err)
	assert.Equal(t, "abc", h.SID)
	assert.Equal(t, 45*time.Second, h.Liveness())

	f, err = Parse([]byte("2"))
	require.NoError(t, err)
	assert.Equal(t, EnginePing, f.Engine)

	_, err = Parse(nil)
	assert.True(t, errors.Is(err, ErrEmptyFrame))

	_, err = Parse([]byte("9"))
	assert.True(t, errors.Is(err, ErrUnknownPacket))
}

func TestParse_SocketFrames(t *testing.T) {
	f, err := Parse([]byte(`40{"sid":"xyz"}`))
	require.NoError(t, err)
	assert.Equal(t, EngineMessage, f.Engine)
	assert.Equal(t, SocketConnect, f.Socket)
	assert.JSONEq(t, `{"sid":"xyz"}`, string(f.Data))

	f, err = Parse([]byte(`42/admin,["server_message",{"message":"hi"}]`))
	require.NoError(t, err)
	assert.Equal(t, SocketEvent, f.Socket)
	name, payload, err := ParseEvent(f.Data)
	require.NoError(t, err)
	assert.Equal(t, "server_message", name)
	assert.JSONEq(t, `{"message":"hi"}`, string(payload))

	f, err = Parse([]byte(`44{"message":"Unauthorized"}`))
	require.NoError(t, err)
	assert.Equal(t, SocketConnectError, f.Socket)
	assert.Equal(t, "Unauthorized", ConnectErrorMessage(f.Data))

	_, err = Parse([]byte("4"))
	assert.True(t, errors.Is(err, ErrEmptyFrame))
	_, err = Parse([]byte("47"))
	assert.True(t, errors.Is(err, ErrUnknownPacket))
}

func TestParseEvent(t *testing.T) {
	name, payload, err := ParseEvent([]byte(`12["get_peers"]`))
	require.NoError(t, err)
	assert.Equal(t, "get_peers", name)
	assert.Nil(t, payload)

	_, _, err = ParseEvent([]byte(`[]`))
	assert.Error(t, err)
	_, _, err = ParseEvent([]byte(`[5]`))
	assert.Error(t, err)
	_, _, err = ParseEvent([]byte(`{`))
	assert.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	frame, err := EncodeEvent("get_peers", nil)
	require.NoError(t, err)
	assert.Equal(t, `42["get_peers"]`, string(frame))

	frame, err = EncodeEvent("test_connection", map[string]any{"test": true, "time": 5})
	require.NoError(t, err)
	assert.Equal(t, `42["test_connection",{"test":true,"time":5}]`, string(frame))
}

func TestConnectErrorMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "connect error", ConnectErrorMessage(nil))
	assert.Equal(t, `"denied"`, ConnectErrorMessage([]byte(`"denied"`)))
}
