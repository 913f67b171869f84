package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Each subscriber receives events
// of one type in publish order; ordering across types is not guaranteed.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case KeyDownEvent:
		event.Publish(b.dispatcher, e)
	case KeyUpEvent:
		event.Publish(b.dispatcher, e)
	case BrightnessEvent:
		event.Publish(b.dispatcher, e)
	case WorkspacesChangedEvent:
		event.Publish(b.dispatcher, e)
	case MediaPlayingEvent:
		event.Publish(b.dispatcher, e)
	case RedrawEvent:
		event.Publish(b.dispatcher, e)
	case ExitEvent:
		event.Publish(b.dispatcher, e)
	case TextRequestedEvent:
		event.Publish(b.dispatcher, e)
	case BrightnessRequestedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceHotplugEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter
// and returns an unsubscribe function. Unknown handler types get a no-op.
//
//	unsub := bus.Subscribe(func(e RedrawEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(KeyDownEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(KeyUpEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BrightnessEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(WorkspacesChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MediaPlayingEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RedrawEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ExitEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TextRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BrightnessRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceHotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
