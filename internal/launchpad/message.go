package launchpad

import "bytes"

// Message is an inbound message from the device.
type Message interface {
	// Kind names the message in logs and metrics.
	Kind() string
}

// KeyDown is sent when a pad or button is pressed.
type KeyDown struct{ Key Key }

// KeyUp is sent when a pad or button is released.
type KeyUp struct{ Key Key }

// ApplicationVersion is the firmware version reply to GetVersions.
type ApplicationVersion struct{ Version [4]byte }

// BootloaderVersion is the bootloader version reply to GetVersions.
type BootloaderVersion struct{ Version [4]byte }

// LayoutReply reports the selected layout.
type LayoutReply struct{ Layout Layout }

// ProgrammerMode reports whether programmer mode is active.
type ProgrammerMode struct{ Enabled bool }

// Awake reports the sleep state.
type Awake struct{ Awake bool }

// Brightness reports LED brightness.
type Brightness struct{ Level uint8 }

// LEDFeedback reports the LED feedback settings.
type LEDFeedback struct{ Internal, External bool }

// UnknownMessage carries anything the decoder does not recognise.
type UnknownMessage struct{ Raw []byte }

func (KeyDown) Kind() string            { return "key_down" }
func (KeyUp) Kind() string              { return "key_up" }
func (ApplicationVersion) Kind() string { return "application_version" }
func (BootloaderVersion) Kind() string  { return "bootloader_version" }
func (LayoutReply) Kind() string        { return "layout" }
func (ProgrammerMode) Kind() string     { return "programmer_mode" }
func (Awake) Kind() string              { return "awake" }
func (Brightness) Kind() string         { return "brightness" }
func (LEDFeedback) Kind() string        { return "led_feedback" }
func (UnknownMessage) Kind() string     { return "unknown" }

var versionReplyHeader = []byte{0xf0, 0x7e, 0x00, 0x06, 0x02, 0x00, 0x20, 0x29, 0x13}

// Decode parses one complete MIDI message.
func Decode(msg []byte) Message {
	// Note On covers the 8x8 grid, Control Change the top row and side column.
	if len(msg) == 3 && (msg[0] == noteOn || msg[0] == controlChange) {
		switch msg[2] {
		case 127:
			return KeyDown{Key: Key(msg[1])}
		case 0:
			return KeyUp{Key: Key(msg[1])}
		}
	}

	if len(msg) == 17 && bytes.HasPrefix(msg, versionReplyHeader) &&
		msg[10] == 0 && msg[11] == 0 && msg[16] == sysExEnd {
		var v [4]byte
		copy(v[:], msg[12:16])
		switch msg[9] {
		case 0x01:
			return ApplicationVersion{Version: v}
		case 0x11:
			return BootloaderVersion{Version: v}
		}
	}

	if len(msg) >= 9 && bytes.HasPrefix(msg, sysExHeader) && msg[len(msg)-1] == sysExEnd {
		cmd, data := msg[6], msg[7:len(msg)-1]
		switch {
		case cmd == cmdLayout && len(data) == 1:
			return LayoutReply{Layout: Layout(data[0])}
		case cmd == cmdProgrammerMode && len(data) == 1:
			return ProgrammerMode{Enabled: data[0] == 1}
		case cmd == cmdAwake && len(data) == 1:
			return Awake{Awake: data[0] == 1}
		case cmd == cmdBrightness && len(data) == 1:
			return Brightness{Level: data[0]}
		case cmd == cmdLEDFeedback && len(data) == 2:
			return LEDFeedback{Internal: data[0] == 1, External: data[1] == 1}
		}
	}

	return UnknownMessage{Raw: bytes.Clone(msg)}
}
