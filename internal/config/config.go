package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Backoff policies for [reconnect].
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// Config captures everything vmpeer reads from config.toml.
type Config struct {
	TrackerURL       string
	AutoConnect      bool
	AutoConnectDelay time.Duration
	UploadPath       string
	UploadExtension  string
	LogLevel         string
	LogFile          string
	MetricsAddr      string
	Reconnect        Reconnect
	Peer             Peer
}

// Reconnect is the automatic-reconnection policy.
type Reconnect struct {
	Enabled  bool
	Attempts int
	Delay    time.Duration
	Backoff  string
}

// Peer is the metadata presented with register_peer.
type Peer struct {
	Port         int
	IPAddress    string
	ClientType   string
	Capabilities []string
}

const (
	defaultConfigPath      = "~/.config/vmpeer/config.toml"
	defaultTrackerURL      = "http://localhost:5001"
	defaultAutoConnectWait = 800 * time.Millisecond
	defaultUploadPath      = "/upload-torrent"
	defaultUploadExtension = ".torrent"
	defaultLogLevel        = "info"
	defaultAttempts        = 5
	defaultDelay           = time.Second
	defaultPeerPort        = 6881
	defaultPeerIP          = "127.0.0.1"
	defaultClientType      = "vm-client"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		TrackerURL:       defaultTrackerURL,
		AutoConnect:      true,
		AutoConnectDelay: defaultAutoConnectWait,
		UploadPath:       defaultUploadPath,
		UploadExtension:  defaultUploadExtension,
		LogLevel:         defaultLogLevel,
		Reconnect: Reconnect{
			Enabled:  true,
			Attempts: defaultAttempts,
			Delay:    defaultDelay,
			Backoff:  BackoffConstant,
		},
		Peer: Peer{
			Port:         defaultPeerPort,
			IPAddress:    defaultPeerIP,
			ClientType:   defaultClientType,
			Capabilities: []string{"p2p-sharing", "webseed"},
		},
	}
}

type rawConfig struct {
	TrackerURL         string  `toml:"tracker_url"`
	AutoConnect        *bool   `toml:"auto_connect"`
	AutoConnectDelayMS *int64  `toml:"auto_connect_delay_ms"`
	UploadPath         string  `toml:"upload_path"`
	UploadExtension    *string `toml:"upload_extension"`
	LogLevel           string  `toml:"log_level"`
	LogFile            string  `toml:"log_file"`
	MetricsAddr        string  `toml:"metrics_addr"`
	Reconnect          struct {
		Enabled  *bool  `toml:"enabled"`
		Attempts *int   `toml:"attempts"`
		DelayMS  *int64 `toml:"delay_ms"`
		Backoff  string `toml:"backoff"`
	} `toml:"reconnect"`
	Peer struct {
		Port         *int     `toml:"port"`
		IPAddress    string   `toml:"ip_address"`
		ClientType   string   `toml:"client_type"`
		Capabilities []string `toml:"capabilities"`
	} `toml:"peer"`
}

// Load locates and parses the vmpeer config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.TrackerURL); v != "" {
		cfg.TrackerURL = v
	}
	if raw.AutoConnect != nil {
		cfg.AutoConnect = *raw.AutoConnect
	}
	if raw.AutoConnectDelayMS != nil && *raw.AutoConnectDelayMS >= 0 {
		cfg.AutoConnectDelay = time.Duration(*raw.AutoConnectDelayMS) * time.Millisecond
	}
	if v := strings.TrimSpace(raw.UploadPath); v != "" {
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		cfg.UploadPath = v
	}
	if raw.UploadExtension != nil {
		// an explicit empty extension disables the pre-filter
		cfg.UploadExtension = strings.TrimSpace(*raw.UploadExtension)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	if raw.Reconnect.Enabled != nil {
		cfg.Reconnect.Enabled = *raw.Reconnect.Enabled
	}
	if raw.Reconnect.Attempts != nil && *raw.Reconnect.Attempts >= 0 {
		cfg.Reconnect.Attempts = *raw.Reconnect.Attempts
	}
	if raw.Reconnect.DelayMS != nil && *raw.Reconnect.DelayMS > 0 {
		cfg.Reconnect.Delay = time.Duration(*raw.Reconnect.DelayMS) * time.Millisecond
	}
	switch strings.ToLower(strings.TrimSpace(raw.Reconnect.Backoff)) {
	case BackoffExponential:
		cfg.Reconnect.Backoff = BackoffExponential
	default:
		cfg.Reconnect.Backoff = BackoffConstant
	}

	if raw.Peer.Port != nil && *raw.Peer.Port > 0 && *raw.Peer.Port <= 65535 {
		cfg.Peer.Port = *raw.Peer.Port
	}
	if v := strings.TrimSpace(raw.Peer.IPAddress); v != "" {
		cfg.Peer.IPAddress = v
	}
	if v := strings.TrimSpace(raw.Peer.ClientType); v != "" {
		cfg.Peer.ClientType = v
	}
	if raw.Peer.Capabilities != nil {
		caps := make([]string, 0, len(raw.Peer.Capabilities))
		for _, c := range raw.Peer.Capabilities {
			if c = strings.TrimSpace(c); c != "" {
				caps = append(caps, c)
			}
		}
		cfg.Peer.Capabilities = caps
	}

	return cfg, nil
}

// DefaultLogPath is where the TUI writes its log when log_file is unset.
func DefaultLogPath() string {
	return mustExpand("~/.local/state/vmpeer/vmpeer.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
