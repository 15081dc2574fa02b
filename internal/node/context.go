// Package node wires the lighting node together and runs its polling loop.
package node

import (
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/ingest"
	"github.com/smazurov/lightnode/internal/input"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/settings"
)

// Context holds the process-wide node state. Everything reachable from it
// belongs to the loop goroutine; other goroutines go through Loop.Submit.
type Context struct {
	Pixels   *pixel.Buffer
	Ingest   *ingest.Ingestor
	Input    *input.Controller
	Network  *netsup.Supervisor
	Store    settings.Store
	Renderer display.Renderer
}

// Snapshot is the read-only view of the loop published for HTTP readers.
type Snapshot struct {
	Input         input.State   `json:"input" doc:"On-device menu state"`
	Network       netsup.Status `json:"network" doc:"Connectivity"`
	PixelCount    int           `json:"pixel_count" example:"120" doc:"Strip length"`
	FramesApplied uint64        `json:"frames_applied" example:"1024" doc:"Frames written to the strip"`
	LastSequence  uint8         `json:"last_sequence" example:"17" doc:"Sequence number of the last applied frame"`
	UptimeSeconds int64         `json:"uptime_seconds" example:"3600" doc:"Seconds since boot"`
}
