// Package cmd holds the maintenance subcommands of the lightnode binary.
package cmd

import "github.com/smazurov/lightnode/internal/logging"

// initLogging sets up minimal logging for a one-shot command.
func initLogging(level string, json bool) {
	cfg := logging.Config{Level: level, Format: "text"}
	if json {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
}
