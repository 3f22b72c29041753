// Package transport runs one websocket session toward the tracker and reports
// its lifecycle and inbound events to a sink.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/sio"
)

// Close reasons, named the way the tracker's Socket.IO peers name them.
const (
	ReasonServerDisconnect = "io server disconnect"
	ReasonClientDisconnect = "io client disconnect"
	ReasonPingTimeout      = "ping timeout"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
)

var (
	ErrNotOpen        = errors.New("session is not open")
	ErrClosed         = errors.New("session is closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Kind classifies a session Event.
type Kind int

const (
	Opened Kind = iota
	Closed
	Failed
	Message
)

func (k Kind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	case Message:
		return "message"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is what a session reports. Every session reports either
// Opened, zero or more Message, then Closed; or a single Failed when it never
// opened.
type Event struct {
	SessionID string
	Kind      Kind
	// Name and Payload are set for Message.
	Name    string
	Payload json.RawMessage
	// Reason is set for Closed.
	Reason string
	// Err is set for Failed.
	Err error
}

// Sink receives session events. It is called from the session's goroutine and
// should hand the event off promptly.
type Sink func(Event)

// Conn is the handle the connection manager keeps for the live session.
type Conn interface {
	ID() string
	Emit(name string, payload any) error
	Close() error
}

// Opener starts sessions. Open must return immediately; the outcome arrives
// through the sink.
type Opener interface {
	Open(endpoint string, sink Sink) Conn
}

// Error wraps a transport-level failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Settings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// Liveness is used until the server's handshake says otherwise.
	Liveness   time.Duration
	SendBuffer int
	Header     http.Header
}

func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		Liveness:         45 * time.Second,
		SendBuffer:       64,
	}
}

// Dialer opens websocket sessions.
type Dialer struct {
	settings *Settings
	ws       *websocket.Dialer
	logger   *zap.Logger
}

var _ Opener = (*Dialer)(nil)

func NewDialer(settings *Settings, logger *zap.Logger) *Dialer {
	if settings == nil {
		settings = DefaultSettings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		settings: settings,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: settings.HandshakeTimeout,
		},
		logger: logger,
	}
}

// Open starts a session toward endpoint (an Engine.IO websocket url).
func (d *Dialer) Open(endpoint string, sink Sink) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := ulid.Make().String()
	s := &Session{
		id:       id,
		endpoint: endpoint,
		sink:     sink,
		settings: d.settings,
		dialer:   d.ws,
		logger:   d.logger.With(zap.String("session_id", id)),
		ctx:      ctx,
		cancel:   cancel,
		send:     make(chan []byte, d.settings.SendBuffer),
	}
	go s.run()
	return s
}

// Session is one websocket lifetime, from dial to close.
type Session struct {
	id       string
	endpoint string
	sink     Sink
	settings *Settings
	dialer   *websocket.Dialer
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	send   chan []byte
	opened atomic.Bool

	closeOnce    sync.Once
	clientClosed atomic.Bool
}

func (s *Session) ID() string {
	return s.id
}

// Emit queues an event frame. It never blocks.
func (s *Session) Emit(name string, payload any) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	if !s.opened.Load() {
		return ErrNotOpen
	}
	frame, err := sio.EncodeEvent(name, payload)
	if err != nil {
		return err
	}
	return s.enqueue(frame)
}

// Close ends the session. The terminal event still arrives through the sink.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.clientClosed.Store(true)
		s.cancel()
	})
	return nil
}

func (s *Session) enqueue(frame []byte) error {
	select {
	case <-s.ctx.Done():
		return ErrClosed
	case s.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (s *Session) run() {
	defer s.cancel()

	s.logger.Debug("dialing tracker", zap.String("endpoint", s.endpoint))
	ws, _, err := s.dialer.DialContext(s.ctx, s.endpoint, s.settings.Header)
	if err != nil {
		s.fail("dial", err)
		return
	}

	writerDone := make(chan struct{})
	go s.writer(ws, writerDone)
	defer func() {
		s.cancel()
		<-writerDone
	}()

	liveness, early, err := s.handshake(ws)
	if err != nil {
		s.fail("handshake", err)
		return
	}

	s.opened.Store(true)
	s.logger.Info("session open")
	s.sink(Event{SessionID: s.id, Kind: Opened})
	for _, ev := range early {
		s.sink(ev)
	}

	reason := s.read(ws, liveness)
	s.opened.Store(false)
	s.logger.Info("session closed", zap.String("reason", reason))
	s.sink(Event{SessionID: s.id, Kind: Closed, Reason: reason})
}

func (s *Session) fail(op string, err error) {
	if s.clientClosed.Load() {
		err = ErrClosed
	}
	s.logger.Info("session failed", zap.String("op", op), zap.Error(err))
	s.sink(Event{SessionID: s.id, Kind: Failed, Err: &Error{Op: op, Err: err}})
}

// handshake waits for the Engine.IO open packet, joins the default namespace
// and waits for the Socket.IO connect acknowledgment. Events the tracker emits
// from its connect handler arrive ahead of the acknowledgment; they are
// returned in order so they can be delivered right after Opened.
func (s *Session) handshake(ws *websocket.Conn) (time.Duration, []Event, error) {
	liveness := s.settings.Liveness
	deadline := time.Now().Add(s.settings.HandshakeTimeout)
	joined := false
	var early []Event
	for {
		ws.SetReadDeadline(deadline)
		_, data, err := ws.ReadMessage()
		if err != nil {
			return 0, nil, err
		}
		frame, err := sio.Parse(data)
		if err != nil {
			s.logger.Debug("skipping frame during handshake", zap.Error(err))
			continue
		}
		switch frame.Engine {
		case sio.EngineOpen:
			h, err := sio.ParseHandshake(frame.Data)
			if err != nil {
				return 0, nil, err
			}
			if h.Liveness() > 0 {
				liveness = h.Liveness()
			}
			if !joined {
				if err := s.enqueue(sio.ConnectFrame); err != nil {
					return 0, nil, err
				}
				joined = true
			}
		case sio.EnginePing:
			if err := s.enqueue(sio.PongFrame); err != nil {
				return 0, nil, err
			}
		case sio.EngineClose:
			return 0, nil, errors.New("closed by server during handshake")
		case sio.EngineMessage:
			switch frame.Socket {
			case sio.SocketConnect:
				return liveness, early, nil
			case sio.SocketConnectError:
				return 0, nil, errors.New(sio.ConnectErrorMessage(frame.Data))
			case sio.SocketEvent:
				name, payload, err := sio.ParseEvent(frame.Data)
				if err != nil {
					s.logger.Debug("dropping malformed event", zap.Error(err))
					continue
				}
				early = append(early, Event{SessionID: s.id, Kind: Message, Name: name, Payload: payload})
			}
		}
	}
}

func (s *Session) read(ws *websocket.Conn, liveness time.Duration) string {
	for {
		ws.SetReadDeadline(time.Now().Add(liveness))
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			return s.closeReason(err)
		}
		if messageType != websocket.TextMessage {
			s.logger.Debug("ignoring non-text frame", zap.Int("type", messageType))
			continue
		}
		frame, err := sio.Parse(data)
		if err != nil {
			s.logger.Debug("dropping unparseable frame", zap.Error(err))
			continue
		}
		switch frame.Engine {
		case sio.EnginePing:
			if err := s.enqueue(sio.PongFrame); err != nil {
				s.logger.Debug("pong not sent", zap.Error(err))
			}
		case sio.EngineClose:
			return ReasonTransportClose
		case sio.EngineMessage:
			switch frame.Socket {
			case sio.SocketEvent:
				name, payload, err := sio.ParseEvent(frame.Data)
				if err != nil {
					s.logger.Debug("dropping malformed event", zap.Error(err))
					continue
				}
				s.sink(Event{SessionID: s.id, Kind: Message, Name: name, Payload: payload})
			case sio.SocketDisconnect:
				return ReasonServerDisconnect
			}
		}
	}
}

func (s *Session) closeReason(err error) string {
	if s.clientClosed.Load() {
		return ReasonClientDisconnect
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonPingTimeout
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return ReasonTransportClose
	}
	if errors.Is(err, net.ErrClosed) {
		return ReasonTransportClose
	}
	return ReasonTransportError
}

// writer owns every write on ws and closes it when the session ends.
func (s *Session) writer(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer ws.Close()

	for {
		select {
		case <-s.ctx.Done():
			if s.clientClosed.Load() && s.opened.Load() {
				ws.SetWriteDeadline(time.Now().Add(s.settings.WriteTimeout))
				ws.WriteMessage(websocket.TextMessage, sio.DisconnectFrame)
			}
			ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return
		case frame := <-s.send:
			ws.SetWriteDeadline(time.Now().Add(s.settings.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				// a websocket write deadline cannot be recovered
				s.logger.Info("write failed", zap.Error(err))
				s.cancel()
				return
			}
		}
	}
}
