package led

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/events"
)

type mockController struct {
	mu       sync.Mutex
	setCalls []setCall
}

type setCall struct {
	ledType string
	enabled bool
	pattern string
}

func (m *mockController) Set(ledType string, enabled bool, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, setCall{ledType, enabled, pattern})
	return nil
}

func (m *mockController) Available() []string { return []string{StatusLED} }
func (m *mockController) Patterns() []string  { return []string{PatternSolid, PatternBlink} }

func (m *mockController) last() (setCall, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.setCalls) == 0 {
		return setCall{}, 0
	}
	return m.setCalls[len(m.setCalls)-1], len(m.setCalls)
}

func waitForPattern(t *testing.T, ctrl *mockController, enabled bool, pattern string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		c, _ := ctrl.last()
		if c.enabled == enabled && c.pattern == pattern {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("last call %+v, want enabled=%v pattern=%q", c, enabled, pattern)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManager_FollowsConnectionState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	mgr := NewManager(ctrl, bus, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	mgr.Start()
	defer mgr.Stop()

	waitForPattern(t, ctrl, false, "")

	steps := []struct {
		state   string
		enabled bool
		pattern string
	}{
		{"joining_client", true, PatternBlink},
		{"client_connected", true, PatternSolid},
		{"reconnecting", true, PatternBlink},
		{"access_point_active", true, PatternHeartbeat},
		{"idle", false, ""},
	}
	for _, s := range steps {
		bus.Publish(events.ConnectionChangedEvent{State: s.state})
		waitForPattern(t, ctrl, s.enabled, s.pattern)
	}
}

func TestManager_IgnoresRepeatedState(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	mgr.handleEvent(events.ConnectionChangedEvent{State: "client_connected"})
	mgr.handleEvent(events.ConnectionChangedEvent{State: "client_connected"})

	if _, n := ctrl.last(); n != 1 {
		t.Errorf("Set called %d times, want 1", n)
	}
}

func TestManager_IdentifyOverridesThenRestores(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	mgr := NewManager(ctrl, bus, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	mgr.Start()
	defer mgr.Stop()

	bus.Publish(events.ConnectionChangedEvent{State: "client_connected"})
	waitForPattern(t, ctrl, true, PatternSolid)

	if err := mgr.Identify(200 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if st := mgr.Status(); !st.Identifying || st.Pattern != PatternBlink {
		t.Errorf("status during identify = %+v", st)
	}

	// A state change during identify is remembered, not shown.
	bus.Publish(events.ConnectionChangedEvent{State: "access_point_active"})
	deadline := time.Now().Add(time.Second)
	for mgr.Status().State != "access_point_active" {
		if time.Now().After(deadline) {
			t.Fatal("state change not recorded")
		}
		time.Sleep(time.Millisecond)
	}
	if c, _ := ctrl.last(); c.pattern != PatternBlink {
		t.Errorf("identify overridden by state change: %+v", c)
	}

	waitForPattern(t, ctrl, true, PatternHeartbeat)
	if st := mgr.Status(); st.Identifying || st.State != "access_point_active" {
		t.Errorf("status after identify = %+v", st)
	}
}

func TestManager_IdentifyRejectsBadDuration(t *testing.T) {
	mgr := NewManager(&mockController{}, events.New(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	for _, d := range []time.Duration{0, -time.Second, MaxIdentify + time.Second} {
		if err := mgr.Identify(d); !errors.Is(err, ErrIdentifyDuration) {
			t.Errorf("%v: err = %v", d, err)
		}
	}
}
