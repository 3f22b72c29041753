package session

import (
	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/identity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// Profile is the peer metadata sent with register_peer.
type Profile struct {
	Port         int
	IPAddress    string
	ClientType   string
	Capabilities []string
}

func DefaultProfile() Profile {
	return Profile{
		Port:         6881,
		IPAddress:    "127.0.0.1",
		ClientType:   "vm-client",
		Capabilities: []string{"p2p-sharing", "webseed"},
	}
}

// Coordinator owns the registration state machine. Registration only lives
// as long as the session it was sent on.
type Coordinator struct {
	id      identity.Identity
	profile Profile
	conn    *ConnectionManager
	issuer  *Issuer
	store   *state.Store
	feed    *activity.Feed
	logger  *zap.Logger

	state state.RegistrationState
	// pending is the session register_peer was last sent on.
	pending string
}

// State is the current registration state.
func (c *Coordinator) State() state.RegistrationState {
	return c.state
}

// Register sends register_peer for the process identity.
func (c *Coordinator) Register() error {
	if c.conn.State() != state.Connected {
		return c.issuer.refuse(CommandRegister)
	}
	c.set(state.Registering)
	c.pending = c.conn.SessionID()
	c.feed.Logf(activity.Info, "Registering as peer: %s", c.id)
	err := c.issuer.RegisterPeer(wire.RegisterPeer{
		PeerID:       c.id.String(),
		Port:         c.profile.Port,
		IPAddress:    c.profile.IPAddress,
		ClientType:   c.profile.ClientType,
		Capabilities: c.profile.Capabilities,
	})
	if err != nil {
		c.reset()
		return err
	}
	return nil
}

func (c *Coordinator) onTransition(t Transition) {
	if t.To == state.Connected {
		if err := c.Register(); err != nil {
			c.logger.Warn("auto-register failed", zap.Error(err))
		}
		return
	}
	c.reset()
}

func (c *Coordinator) handleRegistered(ev wire.PeerRegistered, sessionID string) {
	if c.conn.State() != state.Connected || c.state != state.Registering || sessionID != c.pending {
		c.logger.Debug("discarding stale registration ack",
			zap.String("peer_id", ev.PeerID),
			zap.Stringer("registration", c.state),
			zap.String("session_id", sessionID))
		return
	}
	if ev.PeerID != "" && ev.PeerID != c.id.String() {
		c.logger.Warn("registration ack for another peer", zap.String("peer_id", ev.PeerID))
		return
	}
	c.set(state.Registered)
	c.feed.Logf(activity.Success, "Registered as peer: %s", c.id)
	if ev.Status != "" {
		c.logger.Info("registration confirmed",
			zap.String("status", ev.Status),
			zap.String("timestamp", ev.Timestamp))
	}
}

func (c *Coordinator) reset() {
	c.pending = ""
	c.set(state.Unregistered)
}

func (c *Coordinator) set(reg state.RegistrationState) {
	if err := c.store.SetRegistration(reg); err != nil {
		c.logger.Error("registration write refused", zap.Stringer("registration", reg), zap.Error(err))
		return
	}
	if c.state != reg {
		c.logger.Info("registration state", zap.Stringer("from", c.state), zap.Stringer("to", reg))
	}
	c.state = reg
}
