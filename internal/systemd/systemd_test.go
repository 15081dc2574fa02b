package systemd

import (
	"testing"
	"time"
)

func TestNotifierOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")

	n := NewNotifier()
	if n.WatchdogInterval() != 0 {
		t.Errorf("interval = %v, want 0", n.WatchdogInterval())
	}
	n.Ready()
	n.Watchdog()
	n.Status("ok")
	n.Stopping()
}

func TestNotifierWatchdogInterval(t *testing.T) {
	n := &Notifier{watchdog: 10 * time.Second}
	if got := n.WatchdogInterval(); got != 5*time.Second {
		t.Errorf("interval = %v", got)
	}
}

func TestJobError(t *testing.T) {
	err := &JobError{Unit: NetworkService, Result: "failed"}
	if err.Error() != "systemd job for NetworkManager.service finished with failed" {
		t.Errorf("got %q", err.Error())
	}
}
