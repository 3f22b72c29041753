// Package app is the composition root for vmpeer.
//
// # Overview
//
// This package wires configuration, logging, the tracker HTTP client and
// the session client together, then hands control to one front end: the
// TUI, the headless watcher, or a one-shot HTTP command.
//
// # Architecture
//
//	┌──────────────┐
//	│ bootstrap()  │ Resolve config and overrides
//	└──────┬───────┘
//	       ├─────> config.Load()         Read ~/.config/vmpeer/config.toml
//	       ├─────> logging.New()         zap logger (file sink for the TUI)
//	       └─────> tracker.NewClient()   HTTP API and upload collaborator
//
//	┌──────────────┐
//	│ Run/Watch    │ Session front ends
//	└──────┬───────┘
//	       ├─────> identity.Generate()   One identity per process
//	       ├─────> session.New()         Dialer, store, feed, metrics
//	       ├─────> client.Run()          Session loop goroutine
//	       ├─────> scheduleAutoConnect() Connect after the startup delay
//	       ├─────> serveMetrics()        Optional /metrics endpoint
//	       └─────> ui.Run() / <-ctx      TUI, or log until interrupted
//
// # Components
//
//   - app.go: bootstrap, session construction and the exported commands
//   - poller.go: background tracker status logging for the watcher
//   - metrics.go: optional Prometheus endpoint
//   - status.go: plain-text report for the status command
//
// # Error Handling
//
// Fatal errors (returned):
//   - invalid TOML in the config file
//   - logger or tracker client construction failure
//   - identity generation failure
//
// Recoverable errors (logged, the session keeps going):
//   - auto-connect refusals
//   - status poll failures
//   - metrics listener failures
//
// Connection loss is never an error here; the session client reports it to
// the activity feed and reconnects on its own schedule.
package app
