package tracker

import (
	"errors"
	"fmt"
	"time"
)

const trackerTimestampLayout = "2006-01-02T15:04:05.999999"

// StatusResponse mirrors the payload returned by /api/status.
type StatusResponse struct {
	Status                string   `json:"status"`
	TotalConnectedClients int      `json:"total_connected_clients"`
	TotalPeers            int      `json:"total_peers"`
	TotalTorrents         int      `json:"total_torrents"`
	ConnectedPeers        []string `json:"connected_peers"`
	ServerTime            string   `json:"server_time"`
}

// ParsedServerTime returns the tracker clock as time.Time.
func (s StatusResponse) ParsedServerTime() time.Time {
	return parseTime(s.ServerTime)
}

// HealthResponse mirrors /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether the tracker declared itself healthy.
func (h HealthResponse) Healthy() bool {
	return h.Status == "healthy"
}

// UploadResult mirrors the upload endpoint's JSON reply.
type UploadResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Error    string `json:"error"`
	Filename string `json:"filename"`
	FileID   string `json:"file_id"`
}

var (
	// ErrNoFile is returned when the upload path is empty or not a regular file.
	ErrNoFile = errors.New("no file selected")
	// ErrNotTorrent is returned when the file fails the extension pre-filter.
	ErrNotTorrent = errors.New("file is not a torrent")
)

// UploadError describes a failed upload: the request never completed, the
// file was rejected locally, or the tracker reported success=false.
type UploadError struct {
	Path string
	// Reason is the tracker's error text when it rejected the upload.
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("upload %s: %s", e.Path, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("upload %s failed", e.Path)
	}
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if ts, err := time.ParseInLocation(trackerTimestampLayout, value, time.Local); err == nil {
		return ts
	}
	return time.Time{}
}
