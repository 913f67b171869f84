package events

import "github.com/smazurov/padnode/internal/launchpad"

// Event type constants for kelindar/event.
const (
	TypeKeyDown uint32 = iota + 1
	TypeKeyUp
	TypeBrightness
	TypeWorkspacesChanged
	TypeMediaPlaying
	TypeRedraw
	TypeExit
	TypeTextRequested
	TypeBrightnessRequested
	TypeDeviceHotplug
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// KeyDownEvent is a pad press.
type KeyDownEvent struct {
	Key launchpad.Key `json:"key" example:"55" doc:"Pad key, 10*row + column"`
}

// Type returns the event type identifier for KeyDownEvent.
func (e KeyDownEvent) Type() uint32 { return TypeKeyDown }

// KeyUpEvent is a pad release.
type KeyUpEvent struct {
	Key launchpad.Key `json:"key" example:"55" doc:"Pad key, 10*row + column"`
}

// Type returns the event type identifier for KeyUpEvent.
func (e KeyUpEvent) Type() uint32 { return TypeKeyUp }

// BrightnessEvent carries the brightness reported by the device.
type BrightnessEvent struct {
	Level uint8 `json:"level" example:"91" doc:"LED brightness, 0-127"`
}

// Type returns the event type identifier for BrightnessEvent.
func (e BrightnessEvent) Type() uint32 { return TypeBrightness }

// WorkspacesChangedEvent is published when i3 reports a workspace or
// output change.
type WorkspacesChangedEvent struct {
	Change string `json:"change" example:"focus" doc:"i3 change field"`
}

// Type returns the event type identifier for WorkspacesChangedEvent.
func (e WorkspacesChangedEvent) Type() uint32 { return TypeWorkspacesChanged }

// MediaPlayingEvent reports the media player status.
type MediaPlayingEvent struct {
	Playing bool `json:"playing" doc:"Whether media is playing"`
}

// Type returns the event type identifier for MediaPlayingEvent.
func (e MediaPlayingEvent) Type() uint32 { return TypeMediaPlaying }

// RedrawEvent asks the UI to render again without any input.
type RedrawEvent struct {
	Reason string `json:"reason" example:"tick" doc:"Why the redraw was requested"`
}

// Type returns the event type identifier for RedrawEvent.
func (e RedrawEvent) Type() uint32 { return TypeRedraw }

// ExitEvent stops the daemon.
type ExitEvent struct {
	Reason string `json:"reason" example:"exit button" doc:"Why the daemon is stopping"`
}

// Type returns the event type identifier for ExitEvent.
func (e ExitEvent) Type() uint32 { return TypeExit }

// TextRequestedEvent asks the device to scroll text.
type TextRequestedEvent struct {
	Text  string `json:"text" example:"hello" doc:"Text to scroll"`
	Loop  bool   `json:"loop" doc:"Repeat until replaced"`
	Speed uint8  `json:"speed" example:"15" doc:"Scroll speed"`
	Color uint8  `json:"color" example:"3" doc:"Palette colour"`
}

// Type returns the event type identifier for TextRequestedEvent.
func (e TextRequestedEvent) Type() uint32 { return TypeTextRequested }

// BrightnessRequestedEvent asks the device to change brightness.
type BrightnessRequestedEvent struct {
	Level uint8 `json:"level" example:"127" doc:"LED brightness, 0-127"`
}

// Type returns the event type identifier for BrightnessRequestedEvent.
func (e BrightnessRequestedEvent) Type() uint32 { return TypeBrightnessRequested }

// DeviceHotplugEvent is a kernel uevent for the sound subsystem.
type DeviceHotplugEvent struct {
	Action    string `json:"action" example:"remove" doc:"add, remove or change"`
	Card      int    `json:"card" example:"2" doc:"ALSA card number, -1 if unknown"`
	DevPath   string `json:"devpath" doc:"Kernel device path"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceHotplugEvent.
func (e DeviceHotplugEvent) Type() uint32 { return TypeDeviceHotplug }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"launchpad" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// Names maps the SSE event name of each type to a zero value, for
// documenting the stream.
func Names() map[string]any {
	return map[string]any{
		"key-down":             KeyDownEvent{},
		"key-up":               KeyUpEvent{},
		"brightness":           BrightnessEvent{},
		"workspaces-changed":   WorkspacesChangedEvent{},
		"media-playing":        MediaPlayingEvent{},
		"redraw":               RedrawEvent{},
		"exit":                 ExitEvent{},
		"text-requested":       TextRequestedEvent{},
		"brightness-requested": BrightnessRequestedEvent{},
		"device-hotplug":       DeviceHotplugEvent{},
		"log-entry":            LogEntryEvent{},
	}
}

// Name returns the SSE and metrics name of ev.
func Name(ev Event) string {
	switch ev.(type) {
	case KeyDownEvent:
		return "key-down"
	case KeyUpEvent:
		return "key-up"
	case BrightnessEvent:
		return "brightness"
	case WorkspacesChangedEvent:
		return "workspaces-changed"
	case MediaPlayingEvent:
		return "media-playing"
	case RedrawEvent:
		return "redraw"
	case ExitEvent:
		return "exit"
	case TextRequestedEvent:
		return "text-requested"
	case BrightnessRequestedEvent:
		return "brightness-requested"
	case DeviceHotplugEvent:
		return "device-hotplug"
	case LogEntryEvent:
		return "log-entry"
	default:
		return "unknown"
	}
}
