package app

import (
	"bytes"
	"context"
	"time"

	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/process"
)

var (
	micIdle  = launchpad.Simple(9)
	micInUse = launchpad.Flash(9, 0)
)

const micExpiry = 2 * time.Second

// MicIndicator shows whether an application is recording. It is dark
// while the hardware mute dongle is plugged in.
type MicIndicator struct {
	run    process.Runner
	logger logging.Logger
	ttl    time.Duration
	now    func() time.Time

	color     launchpad.Color
	checkedAt time.Time
}

// NewMicIndicator creates an indicator. A nil run uses process.Output.
func NewMicIndicator(run process.Runner, logger logging.Logger) *MicIndicator {
	if run == nil {
		run = process.Output
	}
	return &MicIndicator{run: run, logger: logger, ttl: micExpiry, now: time.Now}
}

// Color returns the pad colour, running lsusb and pactl at most once per
// two seconds. usbID is the vendor:product of the dongle; empty skips the
// check.
func (m *MicIndicator) Color(ctx context.Context, usbID string) launchpad.Color {
	now := m.now()
	if !m.checkedAt.IsZero() && now.Sub(m.checkedAt) < m.ttl {
		return m.color
	}
	m.color = m.check(ctx, usbID)
	m.checkedAt = now
	return m.color
}

func (m *MicIndicator) check(ctx context.Context, usbID string) launchpad.Color {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if usbID != "" {
		if _, err := m.run(ctx, "lsusb", "-d", usbID); err == nil {
			return launchpad.Off
		}
	}
	out, err := m.run(ctx, "pactl", "list", "short", "source-outputs")
	if err != nil {
		m.logger.Debug("Failed to list source outputs", "error", err)
		return launchpad.Off
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return micIdle
	}
	return micInUse
}
