package netsup

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/settings"
)

type mockRadio struct {
	link       LinkStatus
	apReady    bool
	ip         string
	rssi       int
	rssiOK     bool
	joinCalls  []string
	apCalls    []string
	shutdowns  int
	joinErr    error
	onJoinLink LinkStatus
	setOnJoin  bool
}

func (m *mockRadio) BeginJoin(ssid, _ string) error {
	m.joinCalls = append(m.joinCalls, ssid)
	if m.setOnJoin {
		m.link = m.onJoinLink
	}
	return m.joinErr
}
func (m *mockRadio) JoinStatus() LinkStatus { return m.link }
func (m *mockRadio) StartAccessPoint(ssid, _ string) error {
	m.apCalls = append(m.apCalls, ssid)
	return nil
}
func (m *mockRadio) AccessPointReady() bool   { return m.apReady }
func (m *mockRadio) LocalIP() string          { return m.ip }
func (m *mockRadio) RSSI() (int, bool)        { return m.rssi, m.rssiOK }
func (m *mockRadio) Shutdown() error          { m.shutdowns++; return nil }
func (m *mockRadio) Scan() ([]Network, error) { return []Network{{SSID: "a", RSSI: -50}}, nil }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ConnectionChangedEvent
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := ev.(events.ConnectionChangedEvent); ok {
		p.events = append(p.events, e)
	}
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestSupervisor(radio *mockRadio, policy JoinPolicy) (*Supervisor, *settings.MemoryStore, *recordingPublisher) {
	store := settings.NewMemory()
	pub := &recordingPublisher{}
	s := New(Options{
		Radio:     radio,
		Store:     store,
		Policy:    policy,
		Publisher: pub,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	return s, store, pub
}

func clientConfig() settings.NetworkConfig {
	return settings.NetworkConfig{Mode: settings.ModeClient, ClientSSID: "studio", ClientPassword: "pw"}
}

func TestBoot_UnusableSSIDForcesAccessPoint(t *testing.T) {
	tests := []struct {
		name string
		ssid string
		mode settings.Mode
	}{
		{"empty client", "", settings.ModeClient},
		{"40 chars client", strings.Repeat("n", 40), settings.ModeClient},
		{"32 chars client", strings.Repeat("n", 32), settings.ModeClient},
		{"empty ap", "", settings.ModeAccessPoint},
		{"valid ap", "studio", settings.ModeAccessPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radio := &mockRadio{}
			s, store, _ := newTestSupervisor(radio, DefaultJoinPolicy)
			_ = store.Put(settings.KeyNetMode, string(tt.mode))

			s.Boot(settings.NetworkConfig{Mode: tt.mode, ClientSSID: tt.ssid}, t0)

			if got := s.CurrentStatus().Mode; got != settings.ModeAccessPoint {
				t.Errorf("mode = %q, want ap", got)
			}
			if s.State() != StartingAccessPoint {
				t.Errorf("state = %v", s.State())
			}
			if len(radio.joinCalls) != 0 {
				t.Error("no join should be attempted")
			}
			if got := store.Get(settings.KeyNetMode, ""); got != string(tt.mode) {
				t.Errorf("stored mode rewritten to %q", got)
			}
		})
	}
}

func TestBoot_ClientJoins(t *testing.T) {
	radio := &mockRadio{link: LinkPending}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)

	s.Boot(clientConfig(), t0)
	if s.State() != JoiningClient {
		t.Fatalf("state = %v", s.State())
	}
	if len(radio.joinCalls) != 1 || radio.joinCalls[0] != "studio" {
		t.Fatalf("join calls = %v", radio.joinCalls)
	}

	if s.Poll(t0.Add(100 * time.Millisecond)) {
		t.Error("pending join should not report a change")
	}

	radio.link, radio.ip, radio.rssi, radio.rssiOK = LinkUp, "10.0.0.7", -55, true
	if !s.Poll(t0.Add(200 * time.Millisecond)) {
		t.Fatal("connect should report a change")
	}
	st := s.CurrentStatus()
	if st.State != "client_connected" || st.IP != "10.0.0.7" || st.SSID != "studio" || st.RSSI != -55 || !st.RSSIValid {
		t.Errorf("status = %+v", st)
	}
}

func TestBoot_GeneratesAndPersistsAPSSIDOnce(t *testing.T) {
	radio := &mockRadio{}
	s, store, _ := newTestSupervisor(radio, DefaultJoinPolicy)

	s.Boot(settings.NetworkConfig{Mode: settings.ModeAccessPoint}, t0)
	first := store.Get(settings.KeyAPSSID, "")
	if !strings.HasPrefix(first, APSSIDPrefix) || len(first) != len(APSSIDPrefix)+4 {
		t.Fatalf("generated ssid %q", first)
	}

	s.Boot(settings.LoadNetworkConfig(store), t0)
	if got := store.Get(settings.KeyAPSSID, ""); got != first {
		t.Errorf("ssid regenerated: %q -> %q", first, got)
	}
	if radio.apCalls[1] != first {
		t.Errorf("second boot used %q", radio.apCalls[1])
	}
}

func TestJoinTimeoutFallsBackToAccessPoint(t *testing.T) {
	radio := &mockRadio{link: LinkPending, apReady: true, ip: "192.168.4.1"}
	s, store, pub := newTestSupervisor(radio, JoinPolicy{Timeout: 10 * time.Second, PollInterval: 500 * time.Millisecond})
	_ = settings.SaveNetworkConfig(store, clientConfig())

	s.Boot(settings.LoadNetworkConfig(store), t0)
	clock := &fakeClock{now: t0}
	ticks := 0
	end := s.WaitForJoin(clock, func(Status) { ticks++ })

	if end != AccessPointActive {
		t.Fatalf("end state = %v", end)
	}
	if ticks != 20 {
		t.Errorf("ticks = %d, want 20", ticks)
	}
	st := s.CurrentStatus()
	if st.Mode != settings.ModeAccessPoint || !strings.HasPrefix(st.SSID, APSSIDPrefix) || st.IP != "192.168.4.1" {
		t.Errorf("status = %+v", st)
	}
	if store.Get(settings.KeyNetMode, "") != string(settings.ModeClient) {
		t.Error("fallback must not rewrite the stored mode")
	}
	if radio.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", radio.shutdowns)
	}

	var states []string
	for _, e := range pub.events {
		states = append(states, e.State)
	}
	want := "joining_client,starting_access_point,access_point_active"
	if strings.Join(states, ",") != want {
		t.Errorf("events = %v", states)
	}

	// Terminal without a credentials change.
	for i := range 10 {
		s.Poll(clock.now.Add(time.Duration(i) * time.Minute))
	}
	if s.State() != AccessPointActive {
		t.Errorf("state left AP: %v", s.State())
	}
}

func TestJoinFailureBeforeTimeoutRetries(t *testing.T) {
	radio := &mockRadio{link: LinkDown}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(clientConfig(), t0)

	s.Poll(t0.Add(time.Second))
	s.Poll(t0.Add(2 * time.Second))
	if s.State() != JoiningClient {
		t.Fatalf("state = %v", s.State())
	}
	if len(radio.joinCalls) != 3 {
		t.Errorf("join calls = %d, want 3", len(radio.joinCalls))
	}

	s.Poll(t0.Add(10 * time.Second))
	if s.State() != StartingAccessPoint {
		t.Errorf("state = %v after timeout", s.State())
	}
}

func TestInfiniteTimeoutNeverFallsBack(t *testing.T) {
	radio := &mockRadio{link: LinkPending}
	s, _, _ := newTestSupervisor(radio, JoinPolicy{Timeout: 0})
	s.Boot(clientConfig(), t0)

	s.Poll(t0.Add(24 * time.Hour))
	if s.State() != JoiningClient {
		t.Errorf("state = %v", s.State())
	}
}

func TestWaitForJoin_SucceedsWithinWindow(t *testing.T) {
	radio := &mockRadio{link: LinkPending, ip: "10.0.0.2"}
	s, _, _ := newTestSupervisor(radio, JoinPolicy{Timeout: 10 * time.Second, PollInterval: time.Second})
	s.Boot(clientConfig(), t0)

	clock := &fakeClock{now: t0}
	ticks := 0
	end := s.WaitForJoin(clock, func(Status) {
		ticks++
		if ticks == 3 {
			radio.link = LinkUp
		}
	})
	if end != ClientConnected {
		t.Errorf("end = %v", end)
	}
	if ticks != 4 {
		t.Errorf("ticks = %d, want 4", ticks)
	}
}

func TestWaitForJoin_NotJoiningReturnsImmediately(t *testing.T) {
	radio := &mockRadio{}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(settings.NetworkConfig{Mode: settings.ModeAccessPoint}, t0)

	clock := &fakeClock{now: t0}
	if end := s.WaitForJoin(clock, nil); end != StartingAccessPoint {
		t.Errorf("end = %v", end)
	}
	if !clock.now.Equal(t0) {
		t.Error("clock should not advance")
	}
}

func TestConnectedLinkLossReconnects(t *testing.T) {
	radio := &mockRadio{link: LinkUp, ip: "10.0.0.3"}
	s, _, pub := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(clientConfig(), t0)
	s.Poll(t0)
	if s.State() != ClientConnected {
		t.Fatalf("state = %v", s.State())
	}

	radio.link = LinkDown
	if s.Poll(t0.Add(100 * time.Millisecond)) {
		t.Error("link check ran before its interval")
	}
	if !s.Poll(t0.Add(LinkCheckInterval)) {
		t.Fatal("link loss should report a change")
	}
	if s.State() != JoiningClient {
		t.Errorf("state = %v, want joining", s.State())
	}
	if len(radio.joinCalls) != 2 {
		t.Errorf("join calls = %d", len(radio.joinCalls))
	}

	got := pub.events[len(pub.events)-2].State
	if got != "reconnecting" {
		t.Errorf("expected reconnecting event, got %q", got)
	}
}

func TestRSSIResampledEveryThirtySeconds(t *testing.T) {
	radio := &mockRadio{link: LinkUp, rssi: -70, rssiOK: true}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(clientConfig(), t0)
	s.Poll(t0)

	radio.rssi = -40
	s.Poll(t0.Add(29 * time.Second))
	if got := s.CurrentStatus().RSSI; got != -70 {
		t.Errorf("rssi = %d before interval", got)
	}
	if !s.Poll(t0.Add(30 * time.Second)) {
		t.Error("rssi change should report a change")
	}
	if got := s.CurrentStatus().RSSI; got != -40 {
		t.Errorf("rssi = %d after interval", got)
	}
}

func TestOnCredentialsChanged_SchedulesRestart(t *testing.T) {
	radio := &mockRadio{apReady: true}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(settings.NetworkConfig{Mode: settings.ModeAccessPoint}, t0)
	s.Poll(t0)
	apSSID := s.Config().APSSID

	same := s.Config()
	same.Universe = 9
	if s.OnCredentialsChanged(same) {
		t.Fatal("universe-only change must not restart")
	}

	cfg := clientConfig()
	if !s.OnCredentialsChanged(cfg) {
		t.Fatal("switch to client should schedule a restart")
	}
	if s.State() != AccessPointActive {
		t.Error("state must not change until Restart")
	}

	radio.link = LinkPending
	s.Restart(t0.Add(time.Second))
	if s.RestartPending() {
		t.Error("restart still pending")
	}
	if s.State() != JoiningClient {
		t.Errorf("state = %v after restart", s.State())
	}
	if s.Config().APSSID != apSSID {
		t.Error("access point name lost across restart")
	}
	if radio.shutdowns != 1 {
		t.Errorf("shutdowns = %d", radio.shutdowns)
	}
}

func TestJoinRequestErrorIsAbsorbed(t *testing.T) {
	radio := &mockRadio{link: LinkPending, joinErr: errors.New("nmcli missing")}
	s, _, _ := newTestSupervisor(radio, DefaultJoinPolicy)
	s.Boot(clientConfig(), t0)
	if s.State() != JoiningClient {
		t.Errorf("state = %v", s.State())
	}
}

func TestStateString(t *testing.T) {
	if len(StateNames()) != 6 {
		t.Fatalf("names = %v", StateNames())
	}
	if State(42).String() != "unknown" {
		t.Error("out-of-range state")
	}
}
