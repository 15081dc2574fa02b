// Package systemd talks to the service manager: sd_notify for this unit and
// D-Bus for the units the node depends on.
package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// NetworkService is the unit that owns the Wi-Fi radio.
const NetworkService = "NetworkManager.service"

// Manager controls other units over the system bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// GetServiceStatus returns the ActiveState of a unit.
func (m *Manager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, serviceName, "ActiveState")
	if err != nil {
		return "", err
	}
	return prop.Value.Value().(string), nil
}

// RestartService restarts a unit and waits for the job to finish.
func (m *Manager) RestartService(ctx context.Context, serviceName string) error {
	done := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, serviceName, "replace", done); err != nil {
		return err
	}
	select {
	case result := <-done:
		if result != "done" {
			return &JobError{Unit: serviceName, Result: result}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// JobError reports a unit job that did not finish with "done".
type JobError struct {
	Unit   string
	Result string
}

func (e *JobError) Error() string {
	return "systemd job for " + e.Unit + " finished with " + e.Result
}
