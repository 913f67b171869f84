// Package media follows and controls the desktop media player through
// playerctl.
package media

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/process"
)

const playerctl = "playerctl"

// Publisher receives media status events.
type Publisher interface {
	Publish(ev events.Event)
}

// ParseStatus maps a playerctl status line to a playing flag. ok is false
// for blank or unrecognised lines.
func ParseStatus(line string) (playing, ok bool) {
	switch strings.TrimSpace(line) {
	case "Playing":
		return true, true
	case "Paused", "Stopped":
		return false, true
	}
	return false, false
}

// Follower publishes MediaPlayingEvent whenever the player status changes.
type Follower struct {
	proc    *process.Process
	bus     Publisher
	logger  logging.Logger
	backoff time.Duration
}

// NewFollower creates a follower running `playerctl -F status`.
func NewFollower(bus Publisher, logger logging.Logger) *Follower {
	return newFollower([]string{playerctl, "-F", "status"}, bus, logger)
}

func newFollower(args []string, bus Publisher, logger logging.Logger) *Follower {
	f := &Follower{bus: bus, logger: logger, backoff: 5 * time.Second}
	f.proc = process.NewWithOutput("playerctl", args, logger, process.OutputHandlerFunc(f.handleLine))
	f.proc.SetOutputLevel(slog.LevelDebug)
	return f
}

func (f *Follower) handleLine(source, line string) {
	if source != "stdout" {
		return
	}
	playing, ok := ParseStatus(line)
	if !ok {
		if strings.TrimSpace(line) != "" {
			f.logger.Debug("Ignoring playerctl output", "line", line)
		}
		return
	}
	f.bus.Publish(events.MediaPlayingEvent{Playing: playing})
}

// Run follows the player until ctx is done, restarting playerctl when it
// exits on its own.
func (f *Follower) Run(ctx context.Context) {
	for {
		code := f.proc.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("playerctl exited, restarting", "exit_code", code, "backoff", f.backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.backoff):
		}
	}
}

// Info returns the state of the playerctl process.
func (f *Follower) Info() process.Info {
	return f.proc.Info()
}

// Controller queries and controls the player with one-shot commands.
type Controller struct {
	run    process.Runner
	logger logging.Logger
}

// NewController returns a controller that runs playerctl through run. A
// nil run uses process.Output.
func NewController(run process.Runner, logger logging.Logger) *Controller {
	if run == nil {
		run = process.Output
	}
	return &Controller{run: run, logger: logger}
}

// Playing reports whether the player is playing. Any failure counts as
// not playing.
func (c *Controller) Playing(ctx context.Context) bool {
	out, err := c.run(ctx, playerctl, "status")
	if err != nil {
		c.logger.Debug("playerctl status failed", "error", err)
	}
	return string(bytes.TrimSpace(out)) == "Playing"
}

// Play resumes playback.
func (c *Controller) Play(ctx context.Context) error {
	_, err := c.run(ctx, playerctl, "play")
	return err
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context) error {
	_, err := c.run(ctx, playerctl, "pause")
	return err
}
