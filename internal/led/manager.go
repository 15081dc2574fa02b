package led

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/events"
)

// StatusLED is the logical LED that reflects connectivity.
const StatusLED = "status"

// MaxIdentify bounds an identify request.
const MaxIdentify = time.Minute

// ErrIdentifyDuration is returned for a non-positive or too long identify.
var ErrIdentifyDuration = errors.New("led: identify duration out of range")

// Status is what the status LED currently shows.
type Status struct {
	State       string `json:"state" example:"client_connected" doc:"Connection state the LED follows"`
	Enabled     bool   `json:"enabled" example:"true" doc:"Whether the LED is lit"`
	Pattern     string `json:"pattern" example:"solid" doc:"Active pattern"`
	Identifying bool   `json:"identifying" example:"false" doc:"Whether an identify blink overrides the connection pattern"`
}

// Manager is the only writer of the status LED. It mirrors the connection
// state (solid when joined, heartbeat while hosting the access point,
// blinking while joining, off when idle) and lets an identify request
// override it for a while.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu          sync.Mutex
	lastState   string
	shown       Status
	identify    *time.Timer
	identifyGen int
}

// NewManager creates a manager. Call Start to subscribe.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start subscribes to connection events and shows the idle pattern.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.ConnectionChangedEvent) {
		m.handleEvent(e)
	})
	m.apply("idle")
	m.logger.Info("LED manager started")
}

// Stop unsubscribes, cancels any identify and switches the LED off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.mu.Lock()
	m.cancelIdentify()
	m.mu.Unlock()
	if err := m.controller.Set(StatusLED, false, ""); err != nil {
		m.logger.Debug("Failed to switch status LED off", "error", err)
	}
	m.logger.Info("LED manager stopped")
}

// Identify blinks the status LED for d, then restores the pattern of the
// latest connection state. A new call restarts the window.
func (m *Manager) Identify(d time.Duration) error {
	if d <= 0 || d > MaxIdentify {
		return ErrIdentifyDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.controller.Set(StatusLED, true, PatternBlink); err != nil {
		return err
	}
	m.cancelIdentify()
	m.identifyGen++
	gen := m.identifyGen
	m.shown = Status{State: m.lastState, Enabled: true, Pattern: PatternBlink, Identifying: true}
	m.identify = time.AfterFunc(d, func() { m.endIdentify(gen) })
	m.logger.Info("Identify started", "duration", d)
	return nil
}

// Status returns what the LED shows now.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.shown
	s.State = m.lastState
	return s
}

func (m *Manager) endIdentify(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.identifyGen || m.identify == nil {
		return
	}
	m.identify = nil
	m.show(m.lastState)
	m.logger.Debug("Identify finished", "state", m.lastState)
}

// cancelIdentify stops a pending identify. Callers hold m.mu.
func (m *Manager) cancelIdentify() {
	if m.identify != nil {
		m.identify.Stop()
		m.identify = nil
	}
}

func (m *Manager) handleEvent(e events.ConnectionChangedEvent) {
	m.apply(e.State)
}

func (m *Manager) apply(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == m.lastState {
		return
	}
	m.lastState = state
	if m.identify != nil {
		return
	}
	m.show(state)
}

// show drives the LED for state. Callers hold m.mu.
func (m *Manager) show(state string) {
	enabled, pattern := patternFor(state)
	if err := m.controller.Set(StatusLED, enabled, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "state", state, "error", err)
		return
	}
	m.shown = Status{State: state, Enabled: enabled, Pattern: pattern}
	m.logger.Debug("Status LED updated", "state", state, "pattern", pattern)
}

func patternFor(state string) (bool, string) {
	switch state {
	case "client_connected":
		return true, PatternSolid
	case "access_point_active":
		return true, PatternHeartbeat
	case "joining_client", "reconnecting", "starting_access_point":
		return true, PatternBlink
	}
	return false, ""
}
