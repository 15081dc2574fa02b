package netsup

// State is the connectivity state owned by the Supervisor.
type State int

// Connection states.
const (
	Idle State = iota
	JoiningClient
	ClientConnected
	StartingAccessPoint
	AccessPointActive
	Reconnecting
)

var stateNames = [...]string{
	Idle:                "idle",
	JoiningClient:       "joining_client",
	ClientConnected:     "client_connected",
	StartingAccessPoint: "starting_access_point",
	AccessPointActive:   "access_point_active",
	Reconnecting:        "reconnecting",
}

// String returns the snake_case name used in events, metrics and the API.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// StateNames lists every state name, for metric resets.
func StateNames() []string {
	out := make([]string, len(stateNames))
	copy(out, stateNames[:])
	return out
}

// LinkStatus is what the radio reports about the client link.
type LinkStatus int

// Link states.
const (
	LinkPending LinkStatus = iota
	LinkUp
	LinkDown
)

// Network is one entry of a scan.
type Network struct {
	SSID   string `json:"ssid" example:"studio" doc:"Network name"`
	RSSI   int    `json:"rssi" example:"-58" doc:"Signal strength in dBm"`
	Secure bool   `json:"secure" example:"true" doc:"Whether the network requires a password"`
}

// Radio is the Wi-Fi hardware seen by the supervisor. All methods except
// Scan are called from the main loop only. JoinStatus, AccessPointReady,
// LocalIP and RSSI run on every poll and must not wait on the hardware;
// Shutdown runs only when the mode changes.
// Scan may block and must be safe to call from any goroutine.
type Radio interface {
	// BeginJoin starts joining a client network; the outcome is reported
	// through JoinStatus.
	BeginJoin(ssid, password string) error
	JoinStatus() LinkStatus
	StartAccessPoint(ssid, password string) error
	AccessPointReady() bool
	LocalIP() string
	// RSSI returns the client link signal in dBm.
	RSSI() (int, bool)
	Shutdown() error
	Scan() ([]Network, error)
}
