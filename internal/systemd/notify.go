package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports service state to systemd through sd_notify. Outside a
// systemd unit every call is a no-op.
type Notifier struct {
	watchdog time.Duration
}

// NewNotifier reads the unit's watchdog settings from the environment.
func NewNotifier() *Notifier {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return &Notifier{}
	}
	return &Notifier{watchdog: interval}
}

// WatchdogInterval returns how often Watchdog should be called, half the
// configured timeout, or zero when no watchdog is configured.
func (n *Notifier) WatchdogInterval() time.Duration {
	return n.watchdog / 2
}

// Ready signals that start-up finished.
func (n *Notifier) Ready() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

// Watchdog keeps the unit's watchdog from firing.
func (n *Notifier) Watchdog() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
}

// Stopping signals a clean shutdown.
func (n *Notifier) Stopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) {
	_, _ = daemon.SdNotify(false, "STATUS="+text)
}
