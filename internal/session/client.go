package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/identity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/metrics"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/sio"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/transport"
)

const inboxSize = 256

// Uploader transfers a resource file to the tracker over HTTP.
type Uploader interface {
	Upload(ctx context.Context, path string) (*tracker.UploadResult, error)
}

// Options configures a Client. Identity and Opener are required.
type Options struct {
	TrackerURL string
	Identity   identity.Identity
	Profile    Profile
	// Reconnect's zero value disables automatic reconnection.
	Reconnect ReconnectConfig

	Opener    transport.Opener
	Scheduler Scheduler
	Uploader  Uploader

	Store   *state.Store
	Feed    *activity.Feed
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// DebugInfo summarizes the live session for diagnostics.
type DebugInfo struct {
	SessionExists bool
	SessionID     string
	PeerID        string
	Connection    state.ConnectionState
	Registration  state.RegistrationState
	Attempts      int
}

// Client is the tracker session. All state machines run on the goroutine
// executing Run; public methods hand work to it and wait for the result.
type Client struct {
	id       identity.Identity
	endpoint string

	conn   *ConnectionManager
	coord  *Coordinator
	issuer *Issuer
	router *Router

	store    *state.Store
	feed     *activity.Feed
	metrics  *metrics.Metrics
	uploader Uploader
	logger   *zap.Logger

	inbox chan func()
	done  chan struct{}
}

func New(opts Options) (*Client, error) {
	if opts.Identity == "" {
		return nil, fmt.Errorf("session: identity is required")
	}
	if opts.Opener == nil {
		return nil, fmt.Errorf("session: opener is required")
	}
	endpoint, err := sio.Endpoint(opts.TrackerURL)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = state.NewStore(opts.Identity.String())
	}
	feed := opts.Feed
	if feed == nil {
		feed = activity.NewFeed(activity.DefaultLimit, logger)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	profile := opts.Profile
	if profile.ClientType == "" {
		profile = DefaultProfile()
	}

	c := &Client{
		id:       opts.Identity,
		endpoint: endpoint,
		store:    store,
		feed:     feed,
		metrics:  m,
		uploader: opts.Uploader,
		logger:   logger,
		inbox:    make(chan func(), inboxSize),
		done:     make(chan struct{}),
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = loopScheduler{c}
	}

	c.conn = &ConnectionManager{
		endpoint:  endpoint,
		opener:    opts.Opener,
		scheduler: scheduler,
		reconnect: opts.Reconnect,
		sink:      c.deliver,
		store:     store,
		feed:      feed,
		metrics:   m,
		logger:    logger.Named("connection"),
	}
	c.issuer = &Issuer{
		conn:    c.conn,
		store:   store,
		feed:    feed,
		metrics: m,
		logger:  logger.Named("issuer"),
		now:     now,
	}
	c.coord = &Coordinator{
		id:      opts.Identity,
		profile: profile,
		conn:    c.conn,
		issuer:  c.issuer,
		store:   store,
		feed:    feed,
		logger:  logger.Named("registration"),
	}
	c.router = &Router{
		conn:    c.conn,
		coord:   c.coord,
		store:   store,
		feed:    feed,
		metrics: m,
		logger:  logger.Named("router"),
	}
	c.conn.OnTransition(c.coord.onTransition)
	return c, nil
}

// Run processes work until ctx is cancelled, then closes the session.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Info("session client started", zap.String("peer_id", c.id.String()), zap.String("endpoint", c.endpoint))
	for {
		select {
		case <-ctx.Done():
			c.conn.dispose()
			c.logger.Info("session client stopped")
			return nil
		case fn := <-c.inbox:
			fn()
		}
	}
}

func (c *Client) Identity() identity.Identity { return c.id }
func (c *Client) Store() *state.Store        { return c.store }
func (c *Client) Feed() *activity.Feed       { return c.feed }
func (c *Client) Metrics() *metrics.Metrics  { return c.metrics }
func (c *Client) Endpoint() string           { return c.endpoint }

// Connect opens a new session, replacing any existing one.
func (c *Client) Connect() error {
	return c.call(func() error {
		c.feed.Logf(activity.Info, "Connecting to %s...", c.endpoint)
		c.conn.Connect()
		return nil
	})
}

// Disconnect closes the session without reconnecting.
func (c *Client) Disconnect() error {
	return c.call(func() error {
		c.conn.Disconnect()
		return nil
	})
}

// Register sends register_peer on the live session.
func (c *Client) Register() error {
	return c.call(c.coord.Register)
}

// RequestParticipants asks the tracker for a peers_updated snapshot.
func (c *Client) RequestParticipants() error {
	return c.call(c.issuer.RequestParticipants)
}

// RequestResources asks the tracker for a torrents_list snapshot.
func (c *Client) RequestResources() error {
	return c.call(c.issuer.RequestResources)
}

// Ping sends a diagnostic test_connection.
func (c *Client) Ping() error {
	return c.call(func() error {
		_, err := c.issuer.Ping()
		return err
	})
}

// AnnounceResource uploads path to the tracker once the session is ready and
// asks for a fresh resource list when the tracker accepts it.
func (c *Client) AnnounceResource(ctx context.Context, path string) (*tracker.UploadResult, error) {
	if err := c.call(c.issuer.AnnounceResource); err != nil {
		return nil, err
	}
	if c.uploader == nil {
		return nil, ErrNoUploader
	}

	c.feed.Logf(activity.Info, "Uploading %s...", filepath.Base(path))
	res, err := c.uploader.Upload(ctx, path)
	if err != nil {
		c.feed.Logf(activity.Error, "Upload failed: %v", err)
		return nil, err
	}
	c.feed.Logf(activity.Success, "Upload successful: %s", res.Message)
	if err := c.RequestResources(); err != nil {
		c.logger.Info("resource refresh skipped", zap.Error(err))
	}
	return res, nil
}

// Debug writes the session summary to the activity feed and returns it.
func (c *Client) Debug() (DebugInfo, error) {
	var info DebugInfo
	err := c.call(func() error {
		info = DebugInfo{
			SessionExists: c.conn.SessionID() != "",
			SessionID:     c.conn.SessionID(),
			PeerID:        c.id.String(),
			Connection:    c.conn.State(),
			Registration:  c.coord.State(),
			Attempts:      c.conn.Attempts(),
		}
		c.feed.Logf(activity.Info, "Debug: session=%t connected=%t id=%s peer=%s registration=%s",
			info.SessionExists, info.Connection == state.Connected, orNone(info.SessionID), info.PeerID, info.Registration)
		return nil
	})
	return info, err
}

// ClearLog empties the activity feed.
func (c *Client) ClearLog() {
	c.feed.Clear()
}

func (c *Client) deliver(ev transport.Event) {
	c.post(func() { c.router.Dispatch(ev) })
}

func (c *Client) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.done:
	}
}

func (c *Client) call(fn func() error) error {
	result := make(chan error, 1)
	select {
	case c.inbox <- func() { result <- fn() }:
	case <-c.done:
		return ErrClientClosed
	}
	select {
	case err := <-result:
		return err
	case <-c.done:
		return ErrClientClosed
	}
}

// loopScheduler runs timers on the client loop.
type loopScheduler struct {
	c *Client
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, func() { s.c.post(f) })
	return t.Stop
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
