package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/metrics"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// Command names that never reach the wire.
const (
	CommandAnnounce = "announce"
	CommandRegister = "register"
)

// Issuer sends tracker commands over the live session. Every command checks
// readiness first and is refused without a write when not Connected.
type Issuer struct {
	conn    *ConnectionManager
	store   *state.Store
	feed    *activity.Feed
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// RegisterPeer emits register_peer.
func (i *Issuer) RegisterPeer(p wire.RegisterPeer) error {
	return i.send(wire.EventRegisterPeer, p)
}

// RequestParticipants emits get_peers.
func (i *Issuer) RequestParticipants() error {
	return i.send(wire.EventGetPeers, nil)
}

// RequestResources emits get_torrents.
func (i *Issuer) RequestResources() error {
	return i.send(wire.EventGetTorrents, nil)
}

// Ping emits test_connection stamped with the current time and returns it.
func (i *Issuer) Ping() (time.Time, error) {
	at := i.now()
	if err := i.send(wire.EventTestConnection, wire.NewTestConnection(at)); err != nil {
		return time.Time{}, err
	}
	i.store.MarkPing(at)
	i.feed.Log(activity.Info, "Test message sent")
	return at, nil
}

// AnnounceResource only checks readiness; the transfer itself goes over HTTP.
func (i *Issuer) AnnounceResource() error {
	if _, ok := i.conn.Ready(); !ok {
		return i.refuse(CommandAnnounce)
	}
	i.metrics.Commands.WithLabelValues(CommandAnnounce, "ready").Inc()
	return nil
}

func (i *Issuer) send(command string, payload any) error {
	c, ok := i.conn.Ready()
	if !ok {
		return i.refuse(command)
	}
	if err := c.Emit(command, payload); err != nil {
		// the transport reports the loss through its own lifecycle event
		i.logger.Warn("emit failed", zap.String("command", command), zap.Error(err))
		i.metrics.Commands.WithLabelValues(command, "failed").Inc()
		return nil
	}
	i.logger.Debug("command sent", zap.String("command", command), zap.String("session_id", c.ID()))
	i.metrics.Commands.WithLabelValues(command, "sent").Inc()
	return nil
}

func (i *Issuer) refuse(command string) error {
	i.metrics.Commands.WithLabelValues(command, "refused").Inc()
	i.feed.Logf(activity.Error, "Not connected: %s refused", command)
	return &NotConnectedError{Command: command, State: i.conn.State()}
}
