// Package ui implements immediate-mode widgets drawn into a Launchpad frame.
//
// Every render starts with Begin, which clears the frame and records the
// event being handled. Widgets then draw themselves and report input in a
// single call. State that must survive between renders is stored under an
// explicit id chosen by the caller.
package ui

import (
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/logging"
)

// Device receives side-effect commands such as scrolling text.
type Device interface {
	Send(cmd launchpad.Command) error
}

// EmitFunc queues an event for a later iteration of the loop.
type EmitFunc func(events.Event)

// UI holds the frame being drawn and the widget state.
type UI struct {
	device Device
	emit   EmitFunc
	logger logging.Logger

	frame launchpad.Frame
	event events.Event
	state map[string]any

	brightness      uint8
	brightnessKnown bool
}

// New creates a UI drawing for device.
func New(device Device, emit EmitFunc, logger logging.Logger) *UI {
	return &UI{
		device: device,
		emit:   emit,
		logger: logger,
		frame:  launchpad.NewFrame(),
		event:  events.RedrawEvent{Reason: "init"},
		state:  make(map[string]any),
	}
}

// Begin clears the frame and starts a render for ev.
func (u *UI) Begin(ev events.Event) {
	u.frame.Clear()
	u.event = ev
}

// Event returns the event of the current render. Awake may replace it.
func (u *UI) Event() events.Event { return u.event }

// Frame returns the frame being drawn.
func (u *UI) Frame() launchpad.Frame { return u.frame }

// Set colours a pad directly.
func (u *UI) Set(k launchpad.Key, c launchpad.Color) {
	u.frame.Set(k, c)
}

// KeyDown reports whether the current event presses k.
func (u *UI) KeyDown(k launchpad.Key) bool {
	ev, ok := u.event.(events.KeyDownEvent)
	return ok && ev.Key == k
}

// KeyUp reports whether the current event releases k.
func (u *UI) KeyUp(k launchpad.Key) bool {
	ev, ok := u.event.(events.KeyUpEvent)
	return ok && ev.Key == k
}

// Reset forgets all widget state.
func (u *UI) Reset() {
	clear(u.state)
	u.brightnessKnown = false
}

func (u *UI) send(cmd launchpad.Command) {
	if err := u.device.Send(cmd); err != nil {
		u.logger.Warn("Widget command failed", "command", cmd.Name(), "error", err)
	}
}

// slot returns the state stored under id, creating it with init.
func slot[T any](u *UI, id string, init func() T) *T {
	if v, ok := u.state[id].(*T); ok {
		return v
	}
	v := new(T)
	*v = init()
	u.state[id] = v
	return v
}

func zero[T any]() T {
	var v T
	return v
}
