package session

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/metrics"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/transport"
)

// ReconnectConfig is the static automatic-reconnection policy.
type ReconnectConfig struct {
	Enabled  bool
	Attempts int
	Delay    time.Duration
	// Exponential doubles the delay per attempt instead of keeping it fixed.
	Exponential bool
}

func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enabled:  true,
		Attempts: 5,
		Delay:    time.Second,
	}
}

func (r ReconnectConfig) newBackOff() backoff.BackOff {
	var b backoff.BackOff
	if r.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = r.Delay
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxInterval = 30 * r.Delay
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	} else {
		b = backoff.NewConstantBackOff(r.Delay)
	}
	attempts := r.Attempts
	if attempts < 0 {
		attempts = 0
	}
	return backoff.WithMaxRetries(b, uint64(attempts))
}

// Scheduler defers f by d. The returned function cancels it and reports
// whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// Transition is delivered to connection listeners.
type Transition struct {
	From   state.ConnectionState
	To     state.ConnectionState
	Reason string
}

var connectionStateNames = []string{
	state.Disconnected.String(),
	state.Connecting.String(),
	state.Connected.String(),
	state.ReconnectExhausted.String(),
	state.Errored.String(),
}

// ConnectionManager owns the one live transport session and the connection
// state machine. It is driven exclusively from the client loop.
type ConnectionManager struct {
	endpoint  string
	opener    transport.Opener
	scheduler Scheduler
	reconnect ReconnectConfig
	sink      transport.Sink

	store   *state.Store
	feed    *activity.Feed
	metrics *metrics.Metrics
	logger  *zap.Logger

	conn      transport.Conn
	state     state.ConnectionState
	attempts  int
	policy    backoff.BackOff
	timerGen  int
	stopTimer func() bool

	listeners []func(Transition)
}

// State is the current connection state.
func (m *ConnectionManager) State() state.ConnectionState {
	return m.state
}

// Ready returns the live session only while Connected.
func (m *ConnectionManager) Ready() (transport.Conn, bool) {
	if m.state != state.Connected || m.conn == nil {
		return nil, false
	}
	return m.conn, true
}

// SessionID is the id of the current session, or "" when there is none.
func (m *ConnectionManager) SessionID() string {
	if m.conn == nil {
		return ""
	}
	return m.conn.ID()
}

// Attempts is the number of automatic reconnection attempts since the last
// successful open or manual Connect.
func (m *ConnectionManager) Attempts() int {
	return m.attempts
}

// OnTransition registers fn for every state change.
func (m *ConnectionManager) OnTransition(fn func(Transition)) {
	m.listeners = append(m.listeners, fn)
}

// Connect replaces any existing session with a new one and resets the
// reconnection budget.
func (m *ConnectionManager) Connect() {
	m.cancelReconnect()
	if m.conn != nil {
		m.logger.Info("replacing session", zap.String("session_id", m.conn.ID()))
		m.closeSession()
	}
	m.attempts = 0
	m.policy = m.reconnect.newBackOff()
	m.open()
}

// Disconnect closes the session without scheduling a reconnection.
func (m *ConnectionManager) Disconnect() {
	m.cancelReconnect()
	m.closeSession()
	m.transition(state.Disconnected, transport.ReasonClientDisconnect)
}

// dispose tears everything down at shutdown without notifying anyone.
func (m *ConnectionManager) dispose() {
	m.cancelReconnect()
	m.closeSession()
}

func (m *ConnectionManager) open() {
	m.conn = m.opener.Open(m.endpoint, m.sink)
	m.logger.Info("opening session",
		zap.String("session_id", m.conn.ID()),
		zap.String("endpoint", m.endpoint),
		zap.Int("attempt", m.attempts))
	m.transition(state.Connecting, "")
}

func (m *ConnectionManager) handleOpened() {
	m.attempts = 0
	if m.policy != nil {
		m.policy.Reset()
	}
	m.feed.Logf(activity.Success, "Connected! Session ID: %s", m.conn.ID())
	m.transition(state.Connected, "")
}

func (m *ConnectionManager) handleClosed(reason string) {
	m.conn = nil
	m.feed.Logf(activity.Error, "Disconnected: %s", reason)
	m.transition(state.Disconnected, reason)
	m.scheduleReconnect()
}

func (m *ConnectionManager) handleFailed(err error) {
	m.conn = nil
	reason := "connection failed"
	if err != nil {
		reason = err.Error()
	}
	m.feed.Logf(activity.Error, "Connection failed: %s", reason)
	m.transition(state.Errored, reason)
	m.scheduleReconnect()
}

func (m *ConnectionManager) scheduleReconnect() {
	if !m.reconnect.Enabled {
		return
	}
	if m.policy == nil {
		m.policy = m.reconnect.newBackOff()
	}
	delay := m.policy.NextBackOff()
	if delay == backoff.Stop {
		m.feed.Logf(activity.Error, "Reconnection gave up after %d attempts", m.attempts)
		m.transition(state.ReconnectExhausted, "")
		return
	}
	m.attempts++
	m.timerGen++
	gen := m.timerGen
	m.logger.Info("reconnect scheduled", zap.Int("attempt", m.attempts), zap.Duration("delay", delay))
	m.stopTimer = m.scheduler.AfterFunc(delay, func() { m.fireReconnect(gen) })
}

func (m *ConnectionManager) fireReconnect(gen int) {
	if gen != m.timerGen {
		return
	}
	m.stopTimer = nil
	m.metrics.ReconnectAttempts.Inc()
	m.feed.Logf(activity.Info, "Reconnecting (attempt %d/%d)...", m.attempts, m.reconnect.Attempts)
	m.open()
}

func (m *ConnectionManager) cancelReconnect() {
	m.timerGen++
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
}

func (m *ConnectionManager) closeSession() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		m.logger.Debug("close session", zap.Error(err))
	}
	m.conn = nil
}

func (m *ConnectionManager) transition(to state.ConnectionState, reason string) {
	t := Transition{From: m.state, To: to, Reason: reason}
	m.state = to
	m.store.SetConnection(to, m.SessionID(), m.attempts, reason)
	m.metrics.SetConnectionState(to.String(), connectionStateNames)
	m.logger.Info("connection state",
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.String("reason", reason),
		zap.String("session_id", m.SessionID()))
	for _, fn := range m.listeners {
		fn(t)
	}
}
