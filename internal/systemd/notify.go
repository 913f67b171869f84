// Package systemd integrates padnode with the service manager: readiness
// and watchdog notifications, and control of allowlisted user units.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/padnode/internal/logging"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	logger logging.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) notify(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	return sent
}

// Ready reports that the device is initialised.
func (n *Notifier) Ready() {
	if n.notify(daemon.SdNotifyReady) {
		n.logger.Debug("Notified systemd: ready")
	}
}

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() {
	n.notify(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.notify("STATUS=" + status)
}

// Watchdog pings the watchdog at half its interval until ctx is done. It
// returns immediately when no watchdog is configured.
func (n *Notifier) Watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}
	n.logger.Info("Watchdog enabled", "interval", interval)

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}
