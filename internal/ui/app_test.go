package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/identity"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/prefs"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/session"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

type fakeController struct {
	mu        sync.Mutex
	calls     []string
	err       error
	uploaded  []string
	uploadErr error

	store *state.Store
	feed  *activity.Feed
}

func newFakeController() *fakeController {
	return &fakeController{
		store: state.NewStore("VM-ab12cd34"),
		feed:  activity.NewFeed(activity.DefaultLimit, zap.NewNop()),
	}
}

func (f *fakeController) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Connect() error             { return f.record("connect") }
func (f *fakeController) Disconnect() error          { return f.record("disconnect") }
func (f *fakeController) Register() error            { return f.record("register") }
func (f *fakeController) RequestParticipants() error { return f.record("get_peers") }
func (f *fakeController) RequestResources() error    { return f.record("get_torrents") }
func (f *fakeController) Ping() error                { return f.record("test_connection") }
func (f *fakeController) ClearLog()                  { _ = f.record("clear") }

func (f *fakeController) Debug() (session.DebugInfo, error) {
	return session.DebugInfo{}, f.record("debug")
}

func (f *fakeController) AnnounceResource(_ context.Context, path string) (*tracker.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, path)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &tracker.UploadResult{Success: true, Filename: filepath.Base(path)}, nil
}

func (f *fakeController) Identity() identity.Identity { return "VM-ab12cd34" }
func (f *fakeController) Store() *state.Store         { return f.store }
func (f *fakeController) Feed() *activity.Feed        { return f.feed }

func newTestModel(t *testing.T, ctrl Controller) Model {
	t.Helper()
	m := New(Options{
		Session:    ctrl,
		TrackerURL: "http://localhost:5001",
		Prefs:      prefs.Prefs{Theme: "Nightfox"},
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// apply runs cmd and feeds its message back into the model.
func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func refresh(t *testing.T, m Model, ctrl Controller) Model {
	t.Helper()
	return apply(t, m, fetchSnapshotCmd(ctrl))
}

func TestActionKeysCallSession(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	for _, k := range []string{"c", "r", "p", "t", "g", "d", "x"} {
		var cmd tea.Cmd
		m, cmd = press(t, m, k)
		msg := cmd()
		if _, ok := msg.(actionMsg); !ok {
			t.Fatalf("key %q produced %T, want actionMsg", k, msg)
		}
	}

	want := []string{"connect", "register", "get_peers", "get_torrents", "test_connection", "debug", "disconnect"}
	got := ctrl.Calls()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestActionErrorShownInFooter(t *testing.T) {
	ctrl := newFakeController()
	ctrl.err = &session.NotConnectedError{Command: "get_peers", State: state.Disconnected}
	m := newTestModel(t, ctrl)

	m, cmd := press(t, m, "p")
	m = apply(t, m, cmd)

	if !strings.Contains(m.lastErr, "not connected") {
		t.Fatalf("lastErr = %q, want not connected", m.lastErr)
	}
	if !strings.Contains(m.View(), "get peers") {
		t.Fatalf("view does not show the refused action")
	}

	ctrl.err = nil
	m, cmd = press(t, m, "p")
	m = apply(t, m, cmd)
	if m.lastErr != "" {
		t.Fatalf("lastErr = %q, want cleared after success", m.lastErr)
	}
}

func TestSnapshotRendersStateAndTables(t *testing.T) {
	ctrl := newFakeController()
	ctrl.store.SetConnection(state.Connected, "sess-1", 0, "")
	if err := ctrl.store.SetRegistration(state.Registered); err != nil {
		t.Fatalf("SetRegistration: %v", err)
	}
	ctrl.store.ReplaceParticipants(2, []wire.ParticipantRecord{
		{PeerID: "VM-ab12cd34", IP: "10.0.0.1", Port: 6881},
		{PeerID: "VM-zz99yy88", IP: "10.0.0.2", Port: 6882, ActiveTorrents: []string{"h1"}},
	})
	ctrl.store.ReplaceResources(1, []wire.ResourceRecord{
		{Filename: "ubuntu.torrent", InfoHash: "0123456789abcdef0123", Size: 2048},
	})
	ctrl.feed.Log(activity.Success, "Registered as peer: VM-ab12cd34")

	m := refresh(t, newTestModel(t, ctrl), ctrl)
	view := m.View()

	for _, want := range []string{"VM-ab12cd34", "CONNECTED", "REGISTERED", "VM-zz99yy88", "10.0.0.2:6882", "ubuntu.torrent", "2.0 KiB", "Registered as peer"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestSelectionFollowsFocusAndClamps(t *testing.T) {
	ctrl := newFakeController()
	ctrl.store.SetConnection(state.Connected, "sess-1", 0, "")
	ctrl.store.ReplaceParticipants(2, []wire.ParticipantRecord{{PeerID: "a"}, {PeerID: "b"}})
	ctrl.store.ReplaceResources(1, []wire.ResourceRecord{{Filename: "x.torrent"}})
	m := refresh(t, newTestModel(t, ctrl), ctrl)

	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	if m.participantRow != 1 {
		t.Fatalf("participantRow = %d, want 1", m.participantRow)
	}

	m, _ = press(t, m, "tab")
	if m.focused != paneResources {
		t.Fatalf("focused = %v, want resources", m.focused)
	}
	m, _ = press(t, m, "j")
	if m.resourceRow != 0 {
		t.Fatalf("resourceRow = %d, want 0", m.resourceRow)
	}

	// A smaller list replaces the old one wholesale.
	ctrl.store.ReplaceParticipants(1, []wire.ParticipantRecord{{PeerID: "a"}})
	m = refresh(t, m, ctrl)
	if m.participantRow != 0 {
		t.Fatalf("participantRow = %d, want clamped to 0", m.participantRow)
	}

	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "tab")
	if m.focused != paneParticipants {
		t.Fatalf("focused = %v, want participants after full cycle", m.focused)
	}
}

func TestUploadPromptSubmitsPathAndRemembersDir(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	m, _ = press(t, m, "u")
	if !m.uploading {
		t.Fatalf("upload prompt not open")
	}
	m, _ = press(t, m, "/srv/files/a.torrent")
	m, cmd := press(t, m, "enter")
	if m.uploading {
		t.Fatalf("upload prompt still open after enter")
	}
	m = apply(t, m, cmd)

	if len(ctrl.uploaded) != 1 || ctrl.uploaded[0] != "/srv/files/a.torrent" {
		t.Fatalf("uploaded = %v", ctrl.uploaded)
	}
	if m.prefs.UploadDir != "/srv/files" {
		t.Fatalf("UploadDir = %q, want /srv/files", m.prefs.UploadDir)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.UploadDir != "/srv/files" {
		t.Fatalf("saved UploadDir = %q", saved.UploadDir)
	}

	m, _ = press(t, m, "u")
	if got := m.uploadPath.Value(); got != "/srv/files"+string(filepath.Separator) {
		t.Fatalf("prompt prefilled with %q", got)
	}
}

func TestUploadPromptCancel(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	m, _ = press(t, m, "u")
	m, _ = press(t, m, "c")
	m, cmd := press(t, m, "esc")
	if m.uploading || cmd != nil {
		t.Fatalf("esc did not close the prompt")
	}
	if len(ctrl.Calls()) != 0 {
		t.Fatalf("keys typed into the prompt reached the session: %v", ctrl.Calls())
	}
}

func TestUploadFailureShown(t *testing.T) {
	ctrl := newFakeController()
	ctrl.uploadErr = errors.New("not a .torrent file")
	m := newTestModel(t, ctrl)

	m, _ = press(t, m, "u")
	m, _ = press(t, m, "notes.txt")
	m, cmd := press(t, m, "enter")
	m = apply(t, m, cmd)

	if !strings.Contains(m.lastErr, "not a .torrent file") {
		t.Fatalf("lastErr = %q", m.lastErr)
	}
	if m.prefs.UploadDir != "" {
		t.Fatalf("UploadDir = %q, want unchanged on failure", m.prefs.UploadDir)
	}
}

func TestCycleThemePersists(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	m, _ = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestHelpOverlay(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	m, _ = press(t, m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = press(t, m, "c")
	if m.showHelp {
		t.Fatalf("help overlay still shown")
	}
	if len(ctrl.Calls()) != 0 {
		t.Fatalf("closing help triggered %v", ctrl.Calls())
	}
}

func TestClearLogKey(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	_, cmd := press(t, m, "L")
	if cmd == nil {
		t.Fatalf("expected snapshot refresh after clear")
	}
	if got := ctrl.Calls(); len(got) != 1 || got[0] != "clear" {
		t.Fatalf("calls = %v, want [clear]", got)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newFakeController())
	_, cmd := press(t, m, "q")
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(Options{Session: newFakeController()})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View = %q, want Loading...", got)
	}
}
