// Package logging provides structured logging with per-module log levels.
//
// Records go to stdout when it is attached, to the systemd journal when
// journald is running, and always to an in-memory ring buffer that backs
// the log history endpoint and the live log event stream.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"network": "debug",
//			"http":    "warn",
//		},
//	})
//
// Then take a module logger:
//
//	logger := logging.GetLogger("network")
//	logger.Info("Connection state changed", "to", "client_connected")
//
// Journal entries carry SYSLOG_IDENTIFIER=lightnode and one upper-case
// field per attribute:
//
//	journalctl -t lightnode -f
//	journalctl -t lightnode MODULE=network
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	ingest = "debug"
package logging
