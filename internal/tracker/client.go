package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// StatusFetcher defines the read-only side of the tracker HTTP API.
// This interface is implemented by *Client and can be used for testing.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*StatusResponse, error)
	FetchPeers(ctx context.Context) (wire.PeersUpdated, error)
	FetchTorrents(ctx context.Context) (wire.TorrentsList, error)
	Health(ctx context.Context) (*HealthResponse, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to the tracker's HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	uploadPath string
	extension  string
}

const (
	defaultTrackerURL = "http://localhost:5001"
	defaultUserAgent  = "vmpeer/0.1"
	DefaultUploadPath = "/upload-torrent"
	DefaultExtension  = ".torrent"
	uploadField       = "torrent"
	requestTimeout    = 5 * time.Second
	uploadTimeout     = 60 * time.Second
)

// Option tweaks a Client.
type Option func(*Client)

// WithUploadPath overrides the upload endpoint path.
func WithUploadPath(path string) Option {
	return func(c *Client) {
		if path = strings.TrimSpace(path); path != "" {
			c.uploadPath = path
		}
	}
}

// WithExtension overrides the accepted upload file extension.
func WithExtension(ext string) Option {
	return func(c *Client) {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extension = ext
	}
}

// NewClient builds a Client for the tracker at trackerURL (host:port or a full URL).
func NewClient(trackerURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(trackerURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    base,
		http:       &http.Client{Timeout: requestTimeout},
		userAgent:  defaultUserAgent,
		uploadPath: DefaultUploadPath,
		extension:  DefaultExtension,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized tracker URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchStatus retrieves tracker-wide counters.
func (c *Client) FetchStatus(ctx context.Context) (*StatusResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchPeers retrieves the participant snapshot. The payload has the same
// shape as the peers_updated event and is decoded just as leniently.
func (c *Client) FetchPeers(ctx context.Context) (wire.PeersUpdated, error) {
	if c == nil {
		return wire.PeersUpdated{}, fmt.Errorf("client is nil")
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/peers", &raw); err != nil {
		return wire.PeersUpdated{}, err
	}
	ev, err := wire.Decode(wire.EventPeersUpdated, raw)
	return ev.(wire.PeersUpdated), err
}

// FetchTorrents retrieves the resource snapshot.
func (c *Client) FetchTorrents(ctx context.Context) (wire.TorrentsList, error) {
	if c == nil {
		return wire.TorrentsList{}, fmt.Errorf("client is nil")
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/torrents", &raw); err != nil {
		return wire.TorrentsList{}, err
	}
	ev, err := wire.Decode(wire.EventTorrentsList, raw)
	return ev.(wire.TorrentsList), err
}

// Health probes /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Upload sends the file at path as the "torrent" multipart field. Files that
// do not exist or fail the extension check are rejected before any request.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if err := c.checkUpload(path); err != nil {
		return nil, &UploadError{Path: path, Err: err}
	}

	body, contentType, err := multipartBody(path)
	if err != nil {
		return nil, &UploadError{Path: path, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: c.uploadPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), body)
	if err != nil {
		return nil, &UploadError{Path: path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	// the per-request context carries the longer upload deadline
	httpClient := *c.http
	httpClient.Timeout = 0
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &UploadError{Path: path, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &UploadError{Path: path, Err: fmt.Errorf("api %s returned status %d", c.uploadPath, resp.StatusCode)}
		}
		return nil, &UploadError{Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = fmt.Sprintf("rejected with status %d", resp.StatusCode)
		}
		return &result, &UploadError{Path: path, Reason: reason}
	}
	return &result, nil
}

func (c *Client) checkUpload(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoFile
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	if !info.Mode().IsRegular() {
		return ErrNoFile
	}
	if c.extension != "" && !strings.EqualFold(filepath.Ext(path), c.extension) {
		return fmt.Errorf("%w: want %s", ErrNotTorrent, c.extension)
	}
	return nil
}

func multipartBody(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(uploadField, filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(trackerURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(trackerURL)
	if trimmed == "" {
		trimmed = defaultTrackerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse tracker_url %q: %w", trackerURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
