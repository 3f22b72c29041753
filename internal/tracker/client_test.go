package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultTrackerURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultTrackerURL)
	}

	u, err = parseBaseURL("ws://example.com:1234/socket.io/?EIO=4#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("tracker.lan:5001")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "http://tracker.lan:5001" {
		t.Fatalf("url = %q, want http://tracker.lan:5001", u.String())
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(StatusResponse{Status: "tracker_running", TotalPeers: 2, ConnectedPeers: []string{"VM-a", "VM-b"}})
		case "/api/peers":
			_, _ = w.Write([]byte(`{"count":1,"peers":[{"peer_id":"VM-a","ip":"10.0.0.1","port":6881,"connected_at":"2024-01-01T00:00:00"}]}`))
		case "/api/torrents":
			_, _ = w.Write([]byte(`{"count":1,"torrents":[{"filename":"a.torrent","info_hash":"abc","size":10,"uploaded_at":"2024-01-01T00:00:00"}]}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2024-01-01T00:00:00"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if status.TotalPeers != 2 || len(status.ConnectedPeers) != 2 {
		t.Fatalf("FetchStatus payload = %#v, want 2 peers", status)
	}

	peers, err := c.FetchPeers(ctx)
	if err != nil {
		t.Fatalf("FetchPeers returned error: %v", err)
	}
	if peers.Count != 1 || len(peers.Peers) != 1 || peers.Peers[0].PeerID != "VM-a" {
		t.Fatalf("FetchPeers = %#v, want VM-a", peers)
	}

	torrents, err := c.FetchTorrents(ctx)
	if err != nil {
		t.Fatalf("FetchTorrents returned error: %v", err)
	}
	if torrents.Count != 1 || torrents.Torrents[0].InfoHash != "abc" {
		t.Fatalf("FetchTorrents = %#v, want abc", torrents)
	}

	health, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if !health.Healthy() {
		t.Fatalf("Health = %#v, want healthy", health)
	}

	if !strings.HasPrefix(gotUserAgent, "vmpeer/") {
		t.Fatalf("User-Agent = %q, want vmpeer/*", gotUserAgent)
	}
}

func TestClient_FetchPeersDefaultsMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"peers":[{"ip":"10.0.0.1"}]}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	peers, err := c.FetchPeers(context.Background())
	var malformed *wire.MalformedEventError
	if !errors.As(err, &malformed) {
		t.Fatalf("FetchPeers error = %v, want MalformedEventError", err)
	}
	if peers.Count != 0 || len(peers.Peers) != 1 || peers.Peers[0].PeerID != wire.UnknownPeer {
		t.Fatalf("FetchPeers = %#v, want defaulted record", peers)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/health":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchStatus(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStatus error = %v, want decode response error", err)
	}

	_, err = c.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("Health error = %v, want status 500 error", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestClient_UploadSendsMultipart(t *testing.T) {
	t.Parallel()

	var gotName, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultUploadPath {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile(uploadField)
		if err != nil {
			_ = json.NewEncoder(w).Encode(UploadResult{Error: "No file uploaded"})
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotBody = header.Filename, string(data)
		_ = json.NewEncoder(w).Encode(UploadResult{Success: true, Message: "Torrent uploaded successfully: " + header.Filename, Filename: header.Filename, FileID: "abcd1234"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	path := writeFile(t, "ubuntu.torrent", "d8:announce0:e")

	res, err := c.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !res.Success || res.FileID != "abcd1234" {
		t.Fatalf("Upload result = %#v, want success", res)
	}
	if gotName != "ubuntu.torrent" || gotBody != "d8:announce0:e" {
		t.Fatalf("server got %q/%q, want file contents", gotName, gotBody)
	}
}

func TestClient_UploadRejectedByTracker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(UploadResult{Success: false, Error: "Upload error: disk full"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Upload(context.Background(), writeFile(t, "a.torrent", "x"))
	var uerr *UploadError
	if !errors.As(err, &uerr) || uerr.Reason != "Upload error: disk full" {
		t.Fatalf("Upload error = %v, want tracker reason", err)
	}
}

func TestClient_UploadPreFilter(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	cases := []struct {
		name string
		path string
		want error
	}{
		{"empty path", "", ErrNoFile},
		{"missing file", filepath.Join(t.TempDir(), "gone.torrent"), ErrNoFile},
		{"directory", t.TempDir(), ErrNoFile},
		{"wrong extension", writeFile(t, "notes.txt", "x"), ErrNotTorrent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Upload(context.Background(), tc.path)
			var uerr *UploadError
			if !errors.As(err, &uerr) {
				t.Fatalf("Upload error = %v, want UploadError", err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Upload error = %v, want %v", err, tc.want)
			}
		})
	}
	if requests != 0 {
		t.Fatalf("requests = %d, want none for rejected files", requests)
	}
}

func TestClient_UploadNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url, WithExtension("torrent"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Upload(context.Background(), writeFile(t, "a.torrent", "x"))
	var uerr *UploadError
	if !errors.As(err, &uerr) || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("Upload error = %v, want execute request failure", err)
	}
}
