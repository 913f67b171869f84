//go:build linux

package devices

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/pkg/linuxav/hotplug"
)

func (w *Watcher) run(ctx context.Context) error {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		return fmt.Errorf("open uevent socket: %w", err)
	}
	defer mon.Close()
	mon.AddSubsystemFilter(hotplug.SubsystemSound)

	ch := make(chan hotplug.Event, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- mon.Run(ctx, ch) }()

	w.logger.Info("Hotplug monitoring started for sound devices")
	// ch is closed when the monitor returns.
	for ev := range ch {
		out, ok := toEvent(ev, w.now())
		if !ok {
			continue
		}
		w.logger.Debug("Sound device event", "action", out.Action, "card", out.Card, "devpath", out.DevPath)
		w.pub.Publish(out)
	}
	if err := <-errCh; err != nil && ctx.Err() == nil {
		return fmt.Errorf("hotplug monitor: %w", err)
	}
	w.logger.Info("Hotplug monitor stopped")
	return nil
}

// toEvent converts a kernel event. Only add and remove of sound devices
// are kept.
func toEvent(ev hotplug.Event, at time.Time) (events.DeviceHotplugEvent, bool) {
	if ev.Subsystem != hotplug.SubsystemSound || !relevantAction(ev.Action) {
		return events.DeviceHotplugEvent{}, false
	}
	path := ev.DevPath
	if path == "" {
		path = ev.KObj
	}
	return events.DeviceHotplugEvent{
		Action:    ev.Action,
		Card:      ev.Card(),
		DevPath:   path,
		Timestamp: at.UTC().Format(time.RFC3339),
	}, true
}
