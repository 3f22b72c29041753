package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/config"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/identity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/logging"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/prefs"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/session"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/transport"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/ui"
)

// Options configure the vmpeer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/vmpeer/prefs.toml
	TrackerURL string // overrides tracker_url from the config file
	LogLevel   string // overrides log_level from the config file

	// Out receives human-readable output of the one-shot commands.
	Out io.Writer
}

// runtime is everything a command needs once configuration is resolved.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	closeLog func()
	tracker  *tracker.Client
}

// bootstrap loads configuration, applies overrides and builds the logger and
// tracker HTTP client. console selects the human-readable encoder; logFile
// forces a file sink, which the TUI needs because it owns the terminal.
func bootstrap(opts Options, console, logFile bool) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if url := strings.TrimSpace(opts.TrackerURL); url != "" {
		cfg.TrackerURL = url
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	logOpts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: console}
	if logFile && logOpts.File == "" {
		logOpts.File = config.DefaultLogPath()
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var trackerOpts []tracker.Option
	if cfg.UploadPath != "" {
		trackerOpts = append(trackerOpts, tracker.WithUploadPath(cfg.UploadPath))
	}
	trackerOpts = append(trackerOpts, tracker.WithExtension(cfg.UploadExtension))
	client, err := tracker.NewClient(cfg.TrackerURL, trackerOpts...)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init tracker client: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, closeLog: closeLog, tracker: client}, nil
}

// newSession builds the session client for the resolved configuration.
// Activity entries are mirrored to feedLog; nil uses the runtime logger.
func (rt *runtime) newSession(feedLog *zap.Logger) (*session.Client, error) {
	id, err := identity.Generate()
	if err != nil {
		return nil, err
	}
	rt.logger.Info("generated identity", zap.String("peer_id", id.String()))

	opts := sessionOptions(rt.cfg)
	opts.Identity = id
	opts.Opener = transport.NewDialer(nil, rt.logger.Named("transport"))
	opts.Uploader = rt.tracker
	opts.Store = state.NewStore(id.String())
	if feedLog == nil {
		feedLog = rt.logger.Named("activity")
	}
	opts.Feed = activity.NewFeed(activity.DefaultLimit, feedLog)
	opts.Logger = rt.logger
	return session.New(opts)
}

// sessionOptions maps the config file onto session options.
func sessionOptions(cfg config.Config) session.Options {
	opts := session.Options{
		TrackerURL: cfg.TrackerURL,
		Profile: session.Profile{
			Port:         cfg.Peer.Port,
			IPAddress:    cfg.Peer.IPAddress,
			ClientType:   cfg.Peer.ClientType,
			Capabilities: append([]string(nil), cfg.Peer.Capabilities...),
		},
	}
	if cfg.Reconnect.Enabled {
		opts.Reconnect = session.ReconnectConfig{
			Enabled:     true,
			Attempts:    cfg.Reconnect.Attempts,
			Delay:       cfg.Reconnect.Delay,
			Exponential: cfg.Reconnect.Backoff == config.BackoffExponential,
		}
	}
	return opts
}

// startSession runs the client loop in the background and, when configured,
// connects after the startup delay. The returned function stops the loop and
// waits for it to dispose of the transport.
func (rt *runtime) startSession(ctx context.Context, client *session.Client) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			rt.logger.Error("session loop exited", zap.Error(err))
		}
	}()
	if rt.cfg.AutoConnect {
		scheduleAutoConnect(ctx, client, rt.cfg.AutoConnectDelay, rt.logger)
	}
	return func() {
		cancel()
		<-done
	}
}

// connector is the part of the session client auto-connect needs.
type connector interface {
	Connect() error
}

// scheduleAutoConnect connects once after delay unless ctx ends first.
func scheduleAutoConnect(ctx context.Context, c connector, delay time.Duration, logger *zap.Logger) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := c.Connect(); err != nil && ctx.Err() == nil {
			logger.Warn("auto-connect failed", zap.Error(err))
		}
	}()
}

// Run boots the vmpeer TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := bootstrap(opts, true, true)
	if err != nil {
		return err
	}
	defer rt.closeLog()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := rt.newSession(nil)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	stop := rt.startSession(ctx, client)
	defer stop()

	stopMetrics := serveMetrics(ctx, rt.cfg.MetricsAddr, client.Metrics().Handler(), rt.logger)
	defer stopMetrics()

	return ui.Run(ui.Options{
		Context:    ctx,
		Session:    client,
		TrackerURL: rt.cfg.TrackerURL,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
	})
}

// Watch runs the session headless until the context is cancelled. Activity
// entries are printed to Out and state changes are logged. The tracker's HTTP
// status is polled alongside when statusEvery is positive.
func Watch(ctx context.Context, opts Options, statusEvery time.Duration) error {
	rt, err := bootstrap(opts, true, false)
	if err != nil {
		return err
	}
	defer rt.closeLog()

	// entries go to Out below; mirroring them to the log too would print them twice
	client, err := rt.newSession(zap.NewNop())
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	stopFeed := client.Feed().Subscribe(printEntry(out(opts)))
	defer stopFeed()

	store := client.Store()
	unsubscribe := store.Subscribe(func(change state.Change) {
		if change.Kind != state.ConnectionChanged && change.Kind != state.RegistrationChanged {
			return
		}
		snap := store.Snapshot()
		rt.logger.Info("state changed",
			zap.Stringer("connection", change.Connection),
			zap.Stringer("registration", change.Registration),
			zap.String("session_id", snap.SessionID),
			zap.Int("attempts", snap.Attempts))
	})
	defer unsubscribe()

	stop := rt.startSession(ctx, client)
	defer stop()

	stopMetrics := serveMetrics(ctx, rt.cfg.MetricsAddr, client.Metrics().Handler(), rt.logger)
	defer stopMetrics()

	if statusEvery > 0 {
		StartPoller(ctx, rt.tracker, statusEvery, rt.logger.Named("poller"))
	}

	if !rt.cfg.AutoConnect {
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	<-ctx.Done()
	return nil
}

// Status prints the tracker's HTTP status, peers and torrents once.
func Status(ctx context.Context, opts Options) error {
	rt, err := bootstrap(opts, true, false)
	if err != nil {
		return err
	}
	defer rt.closeLog()
	return printStatus(ctx, out(opts), rt.tracker)
}

// Upload sends one torrent file to the tracker over HTTP, outside any
// session.
func Upload(ctx context.Context, opts Options, path string) error {
	rt, err := bootstrap(opts, true, false)
	if err != nil {
		return err
	}
	defer rt.closeLog()

	res, err := rt.tracker.Upload(ctx, path)
	if err != nil {
		return err
	}
	name := res.Filename
	if name == "" {
		name = path
	}
	_, err = fmt.Fprintf(out(opts), "Upload successful: %s\n", name)
	return err
}

// printEntry writes one activity line per entry as "15:04:05 [tag] text".
func printEntry(w io.Writer) func(activity.Entry) {
	var mu sync.Mutex
	return func(e activity.Entry) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s [%s] %s\n", e.Time.Format("15:04:05"), e.Tag, e.Text)
	}
}

func out(opts Options) io.Writer {
	if opts.Out != nil {
		return opts.Out
	}
	return os.Stdout
}
