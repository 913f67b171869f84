package wm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/layout"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/metrics"
	"github.com/smazurov/padnode/internal/ui"
)

// UrgentCommand focuses the urgent window on the focused workspace.
const UrgentCommand = "[urgent=latest workspace=__focused__] focus"

var (
	arrowIdle    = launchpad.Simple(1)
	arrowPressed = launchpad.Simple(2)
	urgentColor  = launchpad.Pulse(9)
)

// arrows maps the top-row arrow pads to i3 directions.
var arrows = []struct {
	key launchpad.Key
	dir string
}{
	{91, "up"}, {92, "down"}, {93, "left"}, {94, "right"},
}

// UnitController acts on systemd units for unit shortcuts.
type UnitController interface {
	Do(ctx context.Context, unit, action string) error
}

// FocusCommand moves focus, or the focused container with shift.
func FocusCommand(dir string, shift bool) string {
	if shift {
		return "move " + dir
	}
	return "focus " + dir
}

// WorkspaceCommand switches to workspace n. With shift the focused
// container is moved there first.
func WorkspaceCommand(n int, shift bool) string {
	if shift {
		return fmt.Sprintf("move container to workspace number %d; workspace number %d", n, n)
	}
	return fmt.Sprintf("workspace number %d", n)
}

// OutputCommand focuses an output. With shift the focused container is
// moved there first.
func OutputCommand(name string, shift bool) string {
	if shift {
		return fmt.Sprintf("move container to output %s; focus output %s", name, name)
	}
	return "focus output " + name
}

// SwapCommand moves every workspace of from onto to and back, then
// re-shows the workspace that was visible on from and toCurrent.
func SwapCommand(s Snapshot, from, to, toCurrent string) string {
	var parts []string
	for _, n := range s.PerOutput[from] {
		parts = append(parts, fmt.Sprintf("workspace %d, move workspace to output %s", n, to))
	}
	for _, n := range s.PerOutput[to] {
		parts = append(parts, fmt.Sprintf("workspace %d, move workspace to output %s", n, from))
	}
	for _, n := range s.PerOutput[from] {
		if s.Workspaces[n].Visible {
			parts = append(parts, "workspace "+strconv.Itoa(n))
			break
		}
	}
	if toCurrent != "" {
		parts = append(parts, "workspace "+toCurrent)
	}
	return strings.Join(parts, ", ")
}

// Desktop renders the window manager page and runs the commands its pads
// trigger.
type Desktop struct {
	client Client
	logger logging.Logger

	mu       sync.Mutex
	layout   layout.Layout
	units    UnitController
	onUrgent func(launchpad.Key)

	snap       Snapshot
	heldOutput string
}

// NewDesktop creates a desktop page with an empty snapshot. Call Refresh
// before the first render.
func NewDesktop(client Client, l layout.Layout, logger logging.Logger) *Desktop {
	return &Desktop{
		client: client,
		logger: logger,
		layout: l,
		snap:   NewSnapshot(nil, nil),
	}
}

// SetLayout replaces the layout. Safe to call from any goroutine.
func (d *Desktop) SetLayout(l layout.Layout) {
	d.mu.Lock()
	d.layout = l
	d.mu.Unlock()
}

// Layout returns the current layout.
func (d *Desktop) Layout() layout.Layout {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layout
}

// SetUnits enables unit shortcuts.
func (d *Desktop) SetUnits(u UnitController) {
	d.mu.Lock()
	d.units = u
	d.mu.Unlock()
}

// OnUrgent registers fn to run, on the render goroutine, the first time
// a workspace turns urgent. fn receives the workspace pad.
func (d *Desktop) OnUrgent(fn func(launchpad.Key)) {
	d.mu.Lock()
	d.onUrgent = fn
	d.mu.Unlock()
}

// Refresh reloads workspaces and outputs. The previous snapshot is kept
// on error.
func (d *Desktop) Refresh() error {
	s, err := Load(d.client)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.snap = s
	d.mu.Unlock()
	return nil
}

// Snapshot returns the state the page was last refreshed with.
func (d *Desktop) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

func (d *Desktop) run(cmd string) {
	_, err := d.client.RunCommand(cmd)
	metrics.WMCommand(err)
	if err != nil {
		d.logger.Warn("i3 command failed", "command", cmd, "error", err)
		return
	}
	d.logger.Debug("i3 command", "command", cmd)
}

// Render draws arrows, workspaces, outputs and shortcuts. shift is the
// state of the page's shift button.
func (d *Desktop) Render(ctx context.Context, u *ui.UI, shift bool) {
	d.mu.Lock()
	l, snap, units, onUrgent := d.layout, d.snap, d.units, d.onUrgent
	d.mu.Unlock()

	for _, a := range arrows {
		if u.Impulse("wm.arrow."+a.dir, a.key, arrowIdle, arrowPressed) {
			d.run(FocusCommand(a.dir, shift))
		}
	}

	d.renderWorkspaces(u, l, snap, shift, onUrgent)
	d.renderOutputs(u, l, snap, shift)
	d.renderShortcuts(ctx, u, l, units)
}

func (d *Desktop) renderWorkspaces(u *ui.UI, l layout.Layout, snap Snapshot, shift bool, onUrgent func(launchpad.Key)) {
	for n := range l.Workspaces {
		key := WorkspaceKey(n)
		w, exists := snap.Workspaces[n]

		c := launchpad.Off
		if exists {
			first := u.Monostable("wm.urgent."+strconv.Itoa(n), w.Urgent)
			if w.Urgent {
				if first && onUrgent != nil {
					onUrgent(key)
				}
				c = urgentColor
			} else {
				c = WorkspaceColor(l, w)
			}
		}

		if !u.Impulse("wm.workspace."+strconv.Itoa(n), key, c, c) {
			continue
		}
		if exists && w.Focused && w.Urgent {
			d.run(UrgentCommand)
		} else {
			d.run(WorkspaceCommand(n, shift))
		}
	}
}

func (d *Desktop) renderOutputs(u *ui.UI, l layout.Layout, snap Snapshot, shift bool) {
	for i, o := range snap.Outputs {
		if i >= MaxOutputs {
			d.logger.Debug("No pad left for output", "output", o.Name)
			break
		}
		key := OutputKey(i)
		c := snap.outputColor(l, o)
		if u.Impulse("wm.output."+o.Name, key, c, c) {
			d.mu.Lock()
			held := d.heldOutput
			d.mu.Unlock()
			if held != "" && held != o.Name {
				current := ""
				if o.CurrentWorkspace != nil {
					current = *o.CurrentWorkspace
				}
				d.run(SwapCommand(snap, held, o.Name, current))
				d.run(OutputCommand(o.Name, false))
			} else {
				d.run(OutputCommand(o.Name, shift))
			}
		}

		d.mu.Lock()
		switch {
		case u.KeyDown(key):
			d.heldOutput = o.Name
		case u.KeyUp(key):
			if d.heldOutput == o.Name {
				d.heldOutput = ""
			}
		}
		d.mu.Unlock()
	}
}

func (d *Desktop) renderShortcuts(ctx context.Context, u *ui.UI, l layout.Layout, units UnitController) {
	for _, s := range l.Shortcuts {
		id := "wm.shortcut." + strconv.Itoa(int(s.Key))
		if !u.Impulse(id, s.Key, launchpad.Simple(s.Color), launchpad.Simple(s.Pressed)) {
			continue
		}
		if s.Command != "" {
			d.run(s.Command)
			continue
		}
		if units == nil {
			d.logger.Warn("Unit shortcut pressed without systemd", "unit", s.Unit)
			continue
		}
		go d.unitAction(ctx, units, s.Unit, s.Action)
	}
}

func (d *Desktop) unitAction(ctx context.Context, units UnitController, unit, action string) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := units.Do(ctx, unit, action); err != nil {
		d.logger.Warn("Unit action failed", "unit", unit, "action", action, "error", err)
		return
	}
	d.logger.Info("Unit action done", "unit", unit, "action", action)
}
