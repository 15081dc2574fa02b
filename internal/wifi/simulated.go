package wifi

import (
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/netsup"
)

// Simulated is a scripted radio for development without Wi-Fi hardware.
type Simulated struct {
	mu sync.Mutex

	// Known maps joinable SSIDs to their passwords.
	Known map[string]string
	// JoinDelay is how long a join stays pending.
	JoinDelay time.Duration
	// Networks is returned by Scan.
	Networks []netsup.Network

	joinAt   time.Time
	joinSSID string
	joinOK   bool
	joining  bool
	linkUp   bool
	apSSID   string
	now      func() time.Time
}

// NewSimulated creates a simulated radio that accepts the given networks.
func NewSimulated(known map[string]string) *Simulated {
	if known == nil {
		known = make(map[string]string)
	}
	networks := make([]netsup.Network, 0, len(known))
	for ssid, pw := range known {
		networks = append(networks, netsup.Network{SSID: ssid, RSSI: -60, Secure: pw != ""})
	}
	return &Simulated{
		Known:     known,
		JoinDelay: 2 * time.Second,
		Networks:  networks,
		now:       time.Now,
	}
}

// BeginJoin starts a simulated join.
func (s *Simulated) BeginJoin(ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pw, ok := s.Known[ssid]
	s.joinSSID = ssid
	s.joinOK = ok && pw == password
	s.joinAt = s.now().Add(s.JoinDelay)
	s.joining = true
	s.linkUp = false
	s.apSSID = ""
	return nil
}

// JoinStatus resolves a pending join once JoinDelay has passed.
func (s *Simulated) JoinStatus() netsup.LinkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joining {
		if s.now().Before(s.joinAt) {
			return netsup.LinkPending
		}
		s.joining = false
		s.linkUp = s.joinOK
	}
	if s.linkUp {
		return netsup.LinkUp
	}
	return netsup.LinkDown
}

// DropLink simulates losing the client link.
func (s *Simulated) DropLink() {
	s.mu.Lock()
	s.linkUp = false
	s.mu.Unlock()
}

// StartAccessPoint brings the simulated hotspot up immediately.
func (s *Simulated) StartAccessPoint(ssid, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joining, s.linkUp = false, false
	s.apSSID = ssid
	return nil
}

// AccessPointReady reports whether a hotspot was started.
func (s *Simulated) AccessPointReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apSSID != ""
}

// LocalIP returns a fixed address per mode.
func (s *Simulated) LocalIP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.apSSID != "":
		return "192.168.4.1"
	case s.linkUp:
		return "192.168.1.50"
	}
	return ""
}

// RSSI reports a fixed signal while joined.
func (s *Simulated) RSSI() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.linkUp {
		return 0, false
	}
	return -60, true
}

// Shutdown drops every link.
func (s *Simulated) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joining, s.linkUp = false, false
	s.apSSID = ""
	return nil
}

// Scan returns the configured networks.
func (s *Simulated) Scan() ([]netsup.Network, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]netsup.Network, len(s.Networks))
	copy(out, s.Networks)
	return out, nil
}
