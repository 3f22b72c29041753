// Package config handles loading and parsing the vmpeer configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/vmpeer/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing, empty or out of range, use defaults
//
// Invalid TOML is the only content error; it is returned as "parse config: ...".
//
// # TOML Format
//
//	tracker_url = "http://localhost:5001"
//	auto_connect = true
//	auto_connect_delay_ms = 800
//	upload_path = "/upload-torrent"
//	upload_extension = ".torrent"
//	log_level = "info"
//	log_file = "~/.local/state/vmpeer/vmpeer.log"
//	metrics_addr = "127.0.0.1:9464"
//
//	[reconnect]
//	enabled = true
//	attempts = 5
//	delay_ms = 1000
//	backoff = "constant"   # or "exponential"
//
//	[peer]
//	port = 6881
//	ip_address = "127.0.0.1"
//	client_type = "vm-client"
//	capabilities = ["p2p-sharing", "webseed"]
//
// Every field is optional. Tilde expansion is applied to the config path and
// log_file. An empty metrics_addr disables the metrics endpoint; an explicit
// empty upload_extension disables the upload pre-filter.
package config
