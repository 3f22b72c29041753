package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Event is one decoded inbound tracker event. The concrete types below are the
// complete set; anything else decodes to Unknown.
type Event interface {
	EventName() string
}

// ServerMessage is an informational notice. Type is the severity tag
// ("info", "success", "warning", "error"); it defaults to "info".
type ServerMessage struct {
	Message string
	Type    string
}

// PeerRegistered acknowledges register_peer.
type PeerRegistered struct {
	PeerID    string
	Status    string
	Timestamp string
}

// PeersUpdated is a full participant snapshot.
type PeersUpdated struct {
	Count int
	Peers []ParticipantRecord
}

// TorrentsList is a full resource snapshot.
type TorrentsList struct {
	Count    int
	Torrents []ResourceRecord
}

// Unknown is any event name the client does not handle.
type Unknown struct {
	Name    string
	Payload json.RawMessage
}

func (ServerMessage) EventName() string  { return EventServerMessage }
func (PeerRegistered) EventName() string { return EventPeerRegistered }
func (PeersUpdated) EventName() string   { return EventPeersUpdated }
func (TorrentsList) EventName() string   { return EventTorrentsList }
func (u Unknown) EventName() string      { return u.Name }

// MalformedEventError lists the fields of an inbound event that were missing
// or had the wrong shape and were replaced by defaults.
type MalformedEventError struct {
	Event  string
	Fields []string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: defaulted %s", e.Event, strings.Join(e.Fields, ", "))
}

// Decode turns a raw event into its typed variant. It never fails outright:
// missing or mistyped fields are defaulted and reported through a non-nil
// *MalformedEventError alongside a usable event.
func Decode(name string, payload json.RawMessage) (Event, error) {
	f := newFields(payload)
	var ev Event
	switch name {
	case EventServerMessage:
		ev = ServerMessage{
			Message: f.str("message", ""),
			Type:    f.optionalStr("type", "info"),
		}
	case EventPeerRegistered:
		ev = PeerRegistered{
			PeerID:    f.str("peer_id", ""),
			Status:    f.optionalStr("status", ""),
			Timestamp: f.optionalStr("timestamp", ""),
		}
	case EventPeersUpdated:
		items := f.list("peers")
		peers := make([]ParticipantRecord, 0, len(items))
		for i, item := range items {
			rf := f.child(fmt.Sprintf("peers[%d]", i), item)
			peers = append(peers, ParticipantRecord{
				PeerID:         rf.str("peer_id", UnknownPeer),
				IP:             rf.str("ip", ""),
				Port:           int(rf.integer("port", 0)),
				ConnectedAt:    rf.str("connected_at", ""),
				ClientID:       rf.optionalStr("client_id", ""),
				ActiveTorrents: rf.optionalStrings("active_torrents"),
			})
		}
		ev = PeersUpdated{Count: int(f.integer("count", 0)), Peers: peers}
	case EventTorrentsList:
		items := f.list("torrents")
		torrents := make([]ResourceRecord, 0, len(items))
		for i, item := range items {
			rf := f.child(fmt.Sprintf("torrents[%d]", i), item)
			torrents = append(torrents, ResourceRecord{
				Filename:   rf.str("filename", UnknownFile),
				InfoHash:   rf.str("info_hash", ""),
				Size:       rf.integer("size", 0),
				UploadedAt: rf.str("uploaded_at", ""),
			})
		}
		ev = TorrentsList{Count: int(f.integer("count", 0)), Torrents: torrents}
	default:
		return Unknown{Name: name, Payload: payload}, nil
	}
	if len(f.bad) > 0 {
		return ev, &MalformedEventError{Event: name, Fields: f.bad}
	}
	return ev, nil
}

// fields reads a JSON object leniently and remembers what it had to default.
type fields struct {
	prefix string
	raw    map[string]json.RawMessage
	bad    []string
	parent *fields
}

func newFields(payload json.RawMessage) *fields {
	f := &fields{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		f.raw = map[string]json.RawMessage{}
		return f
	}
	if err := json.Unmarshal(trimmed, &f.raw); err != nil {
		f.raw = map[string]json.RawMessage{}
		f.bad = append(f.bad, "payload")
	}
	return f
}

func (f *fields) child(prefix string, payload json.RawMessage) *fields {
	c := &fields{prefix: prefix, parent: f}
	if err := json.Unmarshal(payload, &c.raw); err != nil {
		c.raw = map[string]json.RawMessage{}
		c.note("")
	}
	return c
}

func (f *fields) note(key string) {
	name := key
	if f.prefix != "" {
		name = f.prefix
		if key != "" {
			name += "." + key
		}
	}
	root := f
	for root.parent != nil {
		root = root.parent
	}
	root.bad = append(root.bad, name)
}

func (f *fields) lookup(key string) (json.RawMessage, bool) {
	v, ok := f.raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func (f *fields) str(key, def string) string {
	v, ok := f.lookup(key)
	if !ok {
		f.note(key)
		return def
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		// Numbers and booleans are rendered as their literal text.
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			return strconv.FormatBool(b)
		}
		f.note(key)
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func (f *fields) optionalStr(key, def string) string {
	if _, ok := f.lookup(key); !ok {
		return def
	}
	return f.str(key, def)
}

func (f *fields) optionalStrings(key string) []string {
	v, ok := f.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		f.note(key)
		return nil
	}
	return out
}

func (f *fields) integer(key string, def int64) int64 {
	v, ok := f.lookup(key)
	if !ok {
		f.note(key)
		return def
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			n = json.Number(strings.TrimSpace(s))
		}
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(string(n), 64); err == nil && fl >= math.MinInt64 && fl < math.MaxInt64 {
		return int64(fl)
	}
	f.note(key)
	return def
}

func (f *fields) list(key string) []json.RawMessage {
	v, ok := f.lookup(key)
	if !ok {
		f.note(key)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		f.note(key)
		return nil
	}
	return items
}
