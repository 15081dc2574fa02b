package events

// Event type constants for kelindar/event.
const (
	TypeConnectionChanged uint32 = iota + 1
	TypeInputChanged
	TypeUniverseCommitted
	TypeSettingsChanged
	TypeStripTest
	TypeLogEntry
	TypeLightingMetrics
	TypeRestartScheduled
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ConnectionChangedEvent is published on every network supervisor transition.
type ConnectionChangedEvent struct {
	State     string `json:"state" example:"client_connected" doc:"Connection state"`
	Mode      string `json:"mode" example:"client" doc:"Effective network mode: client or ap"`
	IP        string `json:"ip" example:"192.168.1.42" doc:"Local IP address, empty while not connected"`
	SSID      string `json:"ssid" example:"studio" doc:"Joined or hosted network name"`
	RSSI      int    `json:"rssi" example:"-61" doc:"Signal strength in dBm, 0 when unknown"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectionChangedEvent.
func (e ConnectionChangedEvent) Type() uint32 { return TypeConnectionChanged }

// Connected reports whether the node has a usable link in either mode.
func (e ConnectionChangedEvent) Connected() bool {
	return e.State == "client_connected" || e.State == "access_point_active"
}

// InputChangedEvent is published when the on-device menu state changes.
type InputChangedEvent struct {
	Page      string `json:"page" example:"artnet" doc:"Current menu page"`
	Editing   bool   `json:"editing" example:"false" doc:"Whether the universe is being edited"`
	Universe  uint16 `json:"universe" example:"0" doc:"Universe shown by the menu"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for InputChangedEvent.
func (e InputChangedEvent) Type() uint32 { return TypeInputChanged }

// UniverseCommittedEvent is published when a new universe takes effect.
type UniverseCommittedEvent struct {
	Universe  uint16 `json:"universe" example:"13" doc:"Active universe"`
	Source    string `json:"source" example:"encoder" doc:"Who changed it: encoder, api or file"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for UniverseCommittedEvent.
func (e UniverseCommittedEvent) Type() uint32 { return TypeUniverseCommitted }

// SettingsChangedEvent is published after persisted settings were rewritten.
type SettingsChangedEvent struct {
	Source         string `json:"source" example:"api" doc:"Who wrote the settings"`
	RestartPending bool   `json:"restart_pending" example:"true" doc:"Whether the network stack will restart"`
	Timestamp      string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsChangedEvent.
func (e SettingsChangedEvent) Type() uint32 { return TypeSettingsChanged }

// StripTestEvent is published when a test pattern was shown on the strip.
type StripTestEvent struct {
	Color     string `json:"color" example:"r" doc:"Test pattern color"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StripTestEvent.
func (e StripTestEvent) Type() uint32 { return TypeStripTest }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"network" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// LightingMetricsEvent is a periodic sample of the frame path counters.
type LightingMetricsEvent struct {
	FramesApplied uint64  `json:"frames_applied" example:"1024" doc:"Frames written to the strip"`
	FramesIgnored uint64  `json:"frames_ignored" example:"12" doc:"Frames for other universes"`
	DecodeErrors  uint64  `json:"decode_errors" example:"0" doc:"Malformed datagrams"`
	FramesDropped uint64  `json:"frames_dropped" example:"0" doc:"Frames lost to a full queue"`
	PresentErrors uint64  `json:"present_errors" example:"0" doc:"Failed strip writes"`
	FrameRate     float64 `json:"frame_rate" example:"40" doc:"Applied frames per second over the last interval"`
	Timestamp     string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Sample timestamp"`
}

// Type returns the event type identifier for LightingMetricsEvent.
func (e LightingMetricsEvent) Type() uint32 { return TypeLightingMetrics }

// RestartScheduledEvent is published when the node is about to restart
// itself, after an update, a rollback or an explicit request.
type RestartScheduledEvent struct {
	Reason        string `json:"reason" example:"update" doc:"What triggered the restart: update, rollback or request"`
	TargetVersion string `json:"target_version,omitempty" example:"1.1.0" doc:"Version that will run after the restart"`
	Timestamp     string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RestartScheduledEvent.
func (e RestartScheduledEvent) Type() uint32 { return TypeRestartScheduled }
