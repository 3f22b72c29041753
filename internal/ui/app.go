// Package ui provides a Bubble Tea-based TUI for vmpeer.
package ui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/identity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/prefs"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/session"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
)

// Controller is the session surface the UI drives. *session.Client implements it.
type Controller interface {
	Connect() error
	Disconnect() error
	Register() error
	RequestParticipants() error
	RequestResources() error
	Ping() error
	AnnounceResource(ctx context.Context, path string) (*tracker.UploadResult, error)
	Debug() (session.DebugInfo, error)
	ClearLog()
	Identity() identity.Identity
	Store() *state.Store
	Feed() *activity.Feed
}

var _ Controller = (*session.Client)(nil)

// pane identifies the focused panel.
type pane int

const (
	paneParticipants pane = iota
	paneResources
	paneActivity
	paneCount
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Session    Controller
	TrackerURL string
	PollTick   time.Duration
	Prefs      prefs.Prefs
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	session    Controller
	trackerURL string
	prefs      prefs.Prefs
	prefsPath  string
	pollTick   time.Duration
	keys       keyMap

	// UI state
	theme   Theme
	width   int
	height  int
	ready   bool
	focused pane

	// Data state
	snapshot    state.Snapshot
	entries     []activity.Entry
	lastUpdated time.Time
	lastErr     string

	participantRow int
	resourceRow    int
	logViewport    viewport.Model
	followLog      bool

	showHelp   bool
	uploading  bool
	uploadPath textinput.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Prompt = "torrent file: "
	input.Placeholder = "/path/to/file.torrent"
	input.CharLimit = 4096

	return Model{
		ctx:         ctx,
		session:     opts.Session,
		trackerURL:  opts.TrackerURL,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		logViewport: viewport.New(0, 0),
		followLog:   true,
		uploadPath:  input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.session != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.session))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.session != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.session))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.entries = msg.entries
		m.lastUpdated = time.Now()
		m.clampSelection()
		m.refreshLog()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastErr = msg.action + ": " + msg.err.Error()
		} else {
			m.lastErr = ""
		}
		return m, fetchSnapshotCmd(m.session)

	case uploadDoneMsg:
		if msg.err != nil {
			m.lastErr = "upload: " + msg.err.Error()
		} else {
			m.lastErr = ""
			m.prefs.UploadDir = filepath.Dir(msg.path)
			m.savePrefs()
		}
		return m, fetchSnapshotCmd(m.session)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderPanels())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.uploading {
		return m.handleUploadKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refreshLog()
		return m, nil
	case key.Matches(msg, m.keys.FocusNext):
		m.focused = (m.focused + 1) % paneCount
		m.refreshLog()
		return m, nil
	}

	if m.session == nil {
		return m.scroll(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Connect):
		return m, actionCmd("connect", m.session.Connect)
	case key.Matches(msg, m.keys.Disconnect):
		return m, actionCmd("disconnect", m.session.Disconnect)
	case key.Matches(msg, m.keys.Register):
		return m, actionCmd("register", m.session.Register)
	case key.Matches(msg, m.keys.GetPeers):
		return m, actionCmd("get peers", m.session.RequestParticipants)
	case key.Matches(msg, m.keys.GetTorrents):
		return m, actionCmd("get torrents", m.session.RequestResources)
	case key.Matches(msg, m.keys.Ping):
		return m, actionCmd("test connection", m.session.Ping)
	case key.Matches(msg, m.keys.Debug):
		return m, actionCmd("debug", func() error {
			_, err := m.session.Debug()
			return err
		})
	case key.Matches(msg, m.keys.ClearLog):
		m.session.ClearLog()
		return m, fetchSnapshotCmd(m.session)
	case key.Matches(msg, m.keys.Upload):
		m.uploading = true
		if dir := strings.TrimSpace(m.prefs.UploadDir); dir != "" {
			m.uploadPath.SetValue(dir + string(filepath.Separator))
			m.uploadPath.CursorEnd()
		}
		cmd := m.uploadPath.Focus()
		return m, cmd
	}

	return m.scroll(msg)
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeUpload()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		path := strings.TrimSpace(m.uploadPath.Value())
		m.closeUpload()
		return m, uploadCmd(m.ctx, m.session, path)
	}
	var cmd tea.Cmd
	m.uploadPath, cmd = m.uploadPath.Update(msg)
	return m, cmd
}

func (m *Model) closeUpload() {
	m.uploading = false
	m.uploadPath.Blur()
	m.uploadPath.Reset()
}

// scroll moves the selection in the focused pane.
func (m Model) scroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	delta := 0
	switch {
	case key.Matches(msg, m.keys.ScrollUp):
		delta = -1
	case key.Matches(msg, m.keys.ScrollDown):
		delta = 1
	}

	switch m.focused {
	case paneParticipants:
		m.participantRow += delta
	case paneResources:
		m.resourceRow += delta
	case paneActivity:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		m.followLog = m.logViewport.AtBottom()
		return m, cmd
	}
	m.clampSelection()
	return m, nil
}

// clampSelection keeps row selections inside the current collections.
func (m *Model) clampSelection() {
	m.participantRow = clamp(m.participantRow, 0, len(m.snapshot.Participants)-1)
	m.resourceRow = clamp(m.resourceRow, 0, len(m.snapshot.Resources)-1)
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, m.prefs)
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	entries  []activity.Entry
}

type actionMsg struct {
	action string
	err    error
}

type uploadDoneMsg struct {
	path   string
	result *tracker.UploadResult
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(c Controller) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg{snapshot: c.Store().Snapshot(), entries: c.Feed().Entries()}
	}
}

func actionCmd(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{action: action, err: fn()}
	}
}

func uploadCmd(ctx context.Context, c Controller, path string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.AnnounceResource(ctx, path)
		return uploadDoneMsg{path: path, result: res, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
