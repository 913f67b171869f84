// Package app runs the render loop: it turns device input, window manager
// changes and API requests into frames on the Launchpad.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/padnode/internal/animation"
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/metrics"
	"github.com/smazurov/padnode/internal/synth"
	"github.com/smazurov/padnode/internal/ui"
	"github.com/smazurov/padnode/internal/wm"
)

// ErrDeviceRemoved is returned by Run when the Launchpad goes away.
var ErrDeviceRemoved = errors.New("launchpad removed")

// Device is the Launchpad the loop draws on.
type Device interface {
	Send(cmd launchpad.Command) error
	FullUpdate(frame launchpad.Frame) error
	// Done is closed when the device stops delivering input.
	Done() <-chan struct{}
}

// Options wires the loop to its collaborators.
type Options struct {
	Device  Device
	Bus     *events.Bus
	Desktop *wm.Desktop
	Media   ui.Media
	Synth   *synth.Synth
	Mic     *MicIndicator
	Logger  logging.Logger

	// Card is the ALSA card of the open port, -1 if unknown.
	Card int
	// RedrawInterval defaults to 10s.
	RedrawInterval time.Duration
	Animations     []animation.Option
}

// App is the single consumer of every event that can change the pads.
type App struct {
	device  Device
	bus     *events.Bus
	desktop *wm.Desktop
	media   ui.Media
	synth   *synth.Synth
	mic     *MicIndicator
	anim    *animation.Player
	logger  logging.Logger

	card           int
	redrawInterval time.Duration

	ui      *ui.UI
	inbox   chan events.Event
	pending []events.Event
	voices  []int
}

// New creates the loop. Nothing runs until Run.
func New(opts Options) *App {
	a := &App{
		device:         opts.Device,
		bus:            opts.Bus,
		desktop:        opts.Desktop,
		media:          opts.Media,
		synth:          opts.Synth,
		mic:            opts.Mic,
		anim:           animation.New(opts.Device, opts.Animations...),
		logger:         opts.Logger,
		card:           opts.Card,
		redrawInterval: opts.RedrawInterval,
		inbox:          make(chan events.Event, 64),
	}
	if a.redrawInterval <= 0 {
		a.redrawInterval = 10 * time.Second
	}
	if a.synth == nil {
		a.synth = synth.New()
	}
	a.ui = ui.New(opts.Device, a.emit, opts.Logger)
	return a
}

// emit queues ev behind the event being handled. An ExitEvent goes out on
// the bus so every subscriber sees the daemon stop.
func (a *App) emit(ev events.Event) {
	if _, ok := ev.(events.ExitEvent); ok {
		a.bus.Publish(ev)
		return
	}
	a.pending = append(a.pending, ev)
}

// HandleMessage publishes a decoded device message on the bus, where Run
// picks it up along with every other subscriber. It is the
// launchpad.Handler of the open device.
func (a *App) HandleMessage(msg launchpad.Message) {
	switch m := msg.(type) {
	case launchpad.KeyDown:
		a.bus.Publish(events.KeyDownEvent{Key: m.Key})
	case launchpad.KeyUp:
		a.bus.Publish(events.KeyUpEvent{Key: m.Key})
	case launchpad.Brightness:
		a.bus.Publish(events.BrightnessEvent{Level: m.Level})
	default:
		a.logger.Debug("Ignoring device message", "kind", msg.Kind())
	}
}

func (a *App) subscribe(ctx context.Context) []func() {
	return []func(){
		events.Forward[events.KeyDownEvent](ctx, a.bus, a.inbox),
		events.Forward[events.KeyUpEvent](ctx, a.bus, a.inbox),
		events.Forward[events.BrightnessEvent](ctx, a.bus, a.inbox),
		events.Forward[events.WorkspacesChangedEvent](ctx, a.bus, a.inbox),
		events.Forward[events.MediaPlayingEvent](ctx, a.bus, a.inbox),
		events.Forward[events.RedrawEvent](ctx, a.bus, a.inbox),
		events.Forward[events.ExitEvent](ctx, a.bus, a.inbox),
		events.Forward[events.TextRequestedEvent](ctx, a.bus, a.inbox),
		events.Forward[events.BrightnessRequestedEvent](ctx, a.bus, a.inbox),
		events.Forward[events.DeviceHotplugEvent](ctx, a.bus, a.inbox),
	}
}

// Run plays the startup animation and handles events until an ExitEvent,
// ctx is done or the device goes away. The shutdown animation runs after
// ctx is cancelled too.
func (a *App) Run(ctx context.Context) error {
	for _, unsub := range a.subscribe(ctx) {
		defer unsub()
	}
	a.desktop.OnUrgent(func(k launchpad.Key) { a.alert(ctx, k) })

	if err := a.device.Send(launchpad.SetAwake{Awake: true}); err != nil {
		return fmt.Errorf("wake device: %w", err)
	}
	if err := a.anim.Startup(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn("Startup animation failed", "error", err)
	}
	a.drain()
	if err := a.desktop.Refresh(); err != nil {
		a.logger.Warn("Failed to load workspaces", "error", err)
	}
	a.emit(events.RedrawEvent{Reason: "startup"})

	go a.tick(ctx)

	err := a.loop(ctx)
	if errors.Is(err, ErrDeviceRemoved) {
		return err
	}
	a.synth.ReleaseExcept(nil)
	if animErr := a.anim.Shutdown(context.WithoutCancel(ctx)); animErr != nil {
		a.logger.Warn("Shutdown animation failed", "error", animErr)
	}
	return err
}

// drain drops input that arrived while the startup animation ran.
func (a *App) drain() {
	dropped := 0
	for {
		select {
		case <-a.inbox:
			dropped++
		default:
			if dropped > 0 {
				a.logger.Debug("Dropped events queued during startup", "count", dropped)
			}
			return
		}
	}
}

func (a *App) tick(ctx context.Context) {
	ticker := time.NewTicker(a.redrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.bus.Publish(events.RedrawEvent{Reason: "tick"})
		}
	}
}

func (a *App) next(ctx context.Context) (events.Event, error) {
	if len(a.pending) > 0 {
		ev := a.pending[0]
		a.pending = a.pending[1:]
		return ev, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.device.Done():
		return nil, ErrDeviceRemoved
	case ev := <-a.inbox:
		return ev, nil
	}
}

func (a *App) loop(ctx context.Context) error {
	for {
		ev, err := a.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				a.logger.Info("Stopping", "reason", context.Cause(ctx))
				return nil
			}
			return err
		}
		if e, ok := ev.(events.ExitEvent); ok {
			a.logger.Info("Stopping", "reason", e.Reason)
			return nil
		}
		if err := a.handle(ctx, ev); err != nil {
			return err
		}
	}
}

// handle applies one event and pushes the resulting frame.
func (a *App) handle(ctx context.Context, ev events.Event) error {
	defer metrics.EventHandled(events.Name(ev))

	switch e := ev.(type) {
	case events.DeviceHotplugEvent:
		if e.Action == "remove" && e.Card >= 0 && e.Card == a.card {
			a.logger.Error("Sound card removed", "card", e.Card, "devpath", e.DevPath)
			return ErrDeviceRemoved
		}
		return nil
	case events.TextRequestedEvent:
		cmd := launchpad.NewScrollText(e.Text, e.Loop, e.Speed, launchpad.PaletteText(e.Color))
		if err := a.device.Send(cmd); err != nil {
			return fmt.Errorf("scroll text: %w", err)
		}
		return nil
	case events.BrightnessRequestedEvent:
		if err := a.device.Send(launchpad.SetBrightness{Level: e.Level}); err != nil {
			return fmt.Errorf("set brightness: %w", err)
		}
		// The reply updates the LED slider.
		if err := a.device.Send(launchpad.GetBrightness{}); err != nil {
			return fmt.Errorf("get brightness: %w", err)
		}
		return nil
	case events.WorkspacesChangedEvent:
		if err := a.desktop.Refresh(); err != nil {
			a.logger.Warn("Failed to refresh workspaces", "change", e.Change, "error", err)
		}
	}

	a.render(ctx, ev)
	if err := a.device.FullUpdate(a.ui.Frame()); err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return nil
}

// alert runs on the render goroutine when a workspace turns urgent.
func (a *App) alert(ctx context.Context, k launchpad.Key) {
	a.logger.Info("Workspace urgent", "key", k)
	if err := a.anim.Alert(ctx, &k); err != nil && ctx.Err() == nil {
		a.logger.Warn("Alert animation failed", "error", err)
	}
	a.emit(events.RedrawEvent{Reason: "alert"})
}
