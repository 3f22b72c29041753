// Package wire defines the tracker event contract: event names, outbound
// payloads and the typed inbound event variants.
package wire

import (
	"time"
)

// Outbound event names.
const (
	EventRegisterPeer   = "register_peer"
	EventGetPeers       = "get_peers"
	EventGetTorrents    = "get_torrents"
	EventTestConnection = "test_connection"
)

// Inbound event names.
const (
	EventServerMessage  = "server_message"
	EventPeerRegistered = "peer_registered"
	EventPeersUpdated   = "peers_updated"
	EventTorrentsList   = "torrents_list"
)

// Placeholder labels used when the tracker omits a field.
const (
	UnknownPeer = "unknown"
	UnknownFile = "Unknown File"
)

const trackerTimestampLayout = "2006-01-02T15:04:05.999999"

// RegisterPeer is the register_peer payload.
type RegisterPeer struct {
	PeerID       string   `json:"peer_id"`
	Port         int      `json:"port"`
	IPAddress    string   `json:"ip_address"`
	ClientType   string   `json:"client_type"`
	Capabilities []string `json:"capabilities"`
}

// TestConnection is the test_connection payload. Time is epoch millis taken
// when the ping was issued.
type TestConnection struct {
	Test bool  `json:"test"`
	Time int64 `json:"time"`
}

// NewTestConnection stamps a ping payload with now.
func NewTestConnection(now time.Time) TestConnection {
	return TestConnection{Test: true, Time: now.UnixMilli()}
}

// ParticipantRecord mirrors one entry of peers_updated.peers.
type ParticipantRecord struct {
	PeerID         string   `json:"peer_id"`
	IP             string   `json:"ip"`
	Port           int      `json:"port"`
	ConnectedAt    string   `json:"connected_at"`
	ClientID       string   `json:"client_id,omitempty"`
	ActiveTorrents []string `json:"active_torrents,omitempty"`
}

// ParsedConnectedAt returns ConnectedAt as a time when it parses.
func (p ParticipantRecord) ParsedConnectedAt() time.Time {
	return parseTime(p.ConnectedAt)
}

// ResourceRecord mirrors one entry of torrents_list.torrents.
type ResourceRecord struct {
	Filename   string `json:"filename"`
	InfoHash   string `json:"info_hash"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// ParsedUploadedAt returns UploadedAt as a time when it parses.
func (r ResourceRecord) ParsedUploadedAt() time.Time {
	return parseTime(r.UploadedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	// Python isoformat() without a zone.
	if t, err := time.ParseInLocation(trackerTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
