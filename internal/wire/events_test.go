package wire

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PeersUpdated(t *testing.T) {
	payload := json.RawMessage(`{
		"count": 1,
		"total_clients": 3,
		"peers": [{
			"client_id": "sid-1",
			"ip": "127.0.0.1",
			"port": 6881,
			"peer_id": "VM-ab12cd34",
			"connected_at": "2024-05-01T10:20:30.123456",
			"active_torrents": ["abcd1234"]
		}]
	}`)

	ev, err := Decode(EventPeersUpdated, payload)
	require.NoError(t, err)

	got, ok := ev.(PeersUpdated)
	require.True(t, ok, "Decode returned %T", ev)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Peers, 1)
	assert.Equal(t, ParticipantRecord{
		PeerID:         "VM-ab12cd34",
		IP:             "127.0.0.1",
		Port:           6881,
		ConnectedAt:    "2024-05-01T10:20:30.123456",
		ClientID:       "sid-1",
		ActiveTorrents: []string{"abcd1234"},
	}, got.Peers[0])
	assert.Equal(t, 2024, got.Peers[0].ParsedConnectedAt().Year())
}

func TestDecode_TorrentsList(t *testing.T) {
	payload := json.RawMessage(`{"count": 2, "torrents": [
		{"filename": "a.torrent", "info_hash": "0cc175b9", "size": 2048, "uploaded_at": "2024-05-01T10:20:30"},
		{"filename": "b.torrent", "info_hash": "92eb5ffe", "size": "10", "uploaded_at": "2024-05-01T10:21:00Z"}
	]}`)

	ev, err := Decode(EventTorrentsList, payload)
	require.NoError(t, err)

	got := ev.(TorrentsList)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Torrents, 2)
	assert.Equal(t, int64(2048), got.Torrents[0].Size)
	assert.Equal(t, int64(10), got.Torrents[1].Size)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 21, 0, 0, time.UTC), got.Torrents[1].ParsedUploadedAt())
}

func TestDecode_MissingFieldsDefault(t *testing.T) {
	ev, err := Decode(EventTorrentsList, json.RawMessage(`{"torrents": [{"size": 5}]}`))

	var malformed *MalformedEventError
	require.True(t, errors.As(err, &malformed), "err = %v", err)
	assert.Equal(t, EventTorrentsList, malformed.Event)
	assert.Contains(t, malformed.Fields, "count")
	assert.Contains(t, malformed.Fields, "torrents[0].filename")

	got := ev.(TorrentsList)
	assert.Equal(t, 0, got.Count)
	require.Len(t, got.Torrents, 1)
	assert.Equal(t, UnknownFile, got.Torrents[0].Filename)
	assert.Equal(t, int64(5), got.Torrents[0].Size)
}

func TestDecode_GarbagePayloadYieldsEmptySnapshot(t *testing.T) {
	for _, payload := range []string{``, `null`, `"nope"`, `[1,2]`, `{"count": "many", "peers": {}}`} {
		ev, err := Decode(EventPeersUpdated, json.RawMessage(payload))
		got, ok := ev.(PeersUpdated)
		require.True(t, ok, "payload %q decoded to %T", payload, ev)
		assert.Equal(t, 0, got.Count, "payload %q", payload)
		assert.Empty(t, got.Peers, "payload %q", payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestDecode_PeerEntryNotAnObject(t *testing.T) {
	ev, err := Decode(EventPeersUpdated, json.RawMessage(`{"count": 1, "peers": ["bogus"]}`))
	require.Error(t, err)

	got := ev.(PeersUpdated)
	require.Len(t, got.Peers, 1)
	assert.Equal(t, UnknownPeer, got.Peers[0].PeerID)
}

func TestDecode_ServerMessageDefaultsSeverity(t *testing.T) {
	ev, err := Decode(EventServerMessage, json.RawMessage(`{"message": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, ServerMessage{Message: "hello", Type: "info"}, ev)

	ev, err = Decode(EventServerMessage, json.RawMessage(`{"message": "ok", "type": "success"}`))
	require.NoError(t, err)
	assert.Equal(t, ServerMessage{Message: "ok", Type: "success"}, ev)
}

func TestDecode_OutOfRangeNumbersDefault(t *testing.T) {
	ev, err := Decode(EventTorrentsList, json.RawMessage(`{"count": 1e30, "torrents": [
		{"filename": "a.torrent", "info_hash": "aa", "size": -1e300, "uploaded_at": "2024-05-01T10:20:30"}]}`))

	var malformed *MalformedEventError
	require.True(t, errors.As(err, &malformed), "err = %v", err)
	assert.ElementsMatch(t, []string{"count", "torrents[0].size"}, malformed.Fields)

	got := ev.(TorrentsList)
	assert.Equal(t, 0, got.Count)
	require.Len(t, got.Torrents, 1)
	assert.Equal(t, int64(0), got.Torrents[0].Size)
}

func TestDecode_ScalarTextFields(t *testing.T) {
	ev, err := Decode(EventPeerRegistered, json.RawMessage(`{"peer_id": "VM-ab12cd34", "status": true, "timestamp": 1714558830}`))
	require.NoError(t, err)
	assert.Equal(t, PeerRegistered{PeerID: "VM-ab12cd34", Status: "true", Timestamp: "1714558830"}, ev)
}

func TestDecode_PeerRegistered(t *testing.T) {
	ev, err := Decode(EventPeerRegistered, json.RawMessage(`{"peer_id": "VM-ab12cd34", "status": "success", "timestamp": "2024-05-01T10:20:30"}`))
	require.NoError(t, err)
	assert.Equal(t, PeerRegistered{PeerID: "VM-ab12cd34", Status: "success", Timestamp: "2024-05-01T10:20:30"}, ev)
}

func TestDecode_UnknownEvent(t *testing.T) {
	ev, err := Decode("torrent_peers", json.RawMessage(`{"info_hash": "x"}`))
	require.NoError(t, err)
	u, ok := ev.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "torrent_peers", u.EventName())
}

func TestNewTestConnection(t *testing.T) {
	now := time.UnixMilli(1714558830123)
	got := NewTestConnection(now)
	assert.Equal(t, TestConnection{Test: true, Time: 1714558830123}, got)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"test": true, "time": 1714558830123}`, string(b))
}

func TestRegisterPeerJSON(t *testing.T) {
	b, err := json.Marshal(RegisterPeer{
		PeerID:       "VM-ab12cd34",
		Port:         6881,
		IPAddress:    "127.0.0.1",
		ClientType:   "vm-client",
		Capabilities: []string{"p2p-sharing", "webseed"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"peer_id": "VM-ab12cd34",
		"port": 6881,
		"ip_address": "127.0.0.1",
		"client_type": "vm-client",
		"capabilities": ["p2p-sharing", "webseed"]
	}`, string(b))
}
