package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/metrics"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/transport"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// Router applies transport events to the session. Events from any session
// other than the current one are dropped.
type Router struct {
	conn    *ConnectionManager
	coord   *Coordinator
	store   *state.Store
	feed    *activity.Feed
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Dispatch handles one transport event.
func (r *Router) Dispatch(ev transport.Event) {
	if ev.SessionID == "" || ev.SessionID != r.conn.SessionID() {
		r.logger.Debug("dropping event from replaced session",
			zap.String("session_id", ev.SessionID),
			zap.Stringer("kind", ev.Kind),
			zap.String("event", ev.Name))
		return
	}

	switch ev.Kind {
	case transport.Opened:
		r.conn.handleOpened()
	case transport.Closed:
		r.conn.handleClosed(ev.Reason)
	case transport.Failed:
		r.conn.handleFailed(ev.Err)
	case transport.Message:
		r.route(ev)
	}
}

func (r *Router) route(ev transport.Event) {
	r.metrics.EventsReceived.WithLabelValues(ev.Name).Inc()

	decoded, err := wire.Decode(ev.Name, ev.Payload)
	if err != nil {
		var malformed *wire.MalformedEventError
		if errors.As(err, &malformed) {
			r.metrics.MalformedEvents.WithLabelValues(ev.Name).Inc()
			r.logger.Warn("malformed event", zap.String("event", ev.Name), zap.Strings("fields", malformed.Fields))
		} else {
			r.logger.Warn("undecodable event", zap.String("event", ev.Name), zap.Error(err))
		}
	}
	if decoded == nil {
		return
	}

	switch e := decoded.(type) {
	case wire.ServerMessage:
		r.feed.LogTagged(e.Type, e.Message)
	case wire.PeerRegistered:
		r.coord.handleRegistered(e, ev.SessionID)
	case wire.PeersUpdated:
		r.store.ReplaceParticipants(e.Count, e.Peers)
		r.metrics.Participants.Set(float64(len(e.Peers)))
		r.feed.Logf(activity.Info, "Peer list updated: %d peers", e.Count)
	case wire.TorrentsList:
		r.store.ReplaceResources(e.Count, e.Torrents)
		r.metrics.Resources.Set(float64(len(e.Torrents)))
		r.feed.Logf(activity.Info, "Torrent list updated: %d torrents", e.Count)
	case wire.Unknown:
		r.logger.Debug("ignoring unhandled event", zap.String("event", e.Name))
	}
}
