package launchpad

import (
	"errors"
	"fmt"
)

// SysEx framing for Launchpad Mini MK3 programmer-mode messages.
const (
	sysExStart byte = 0xf0
	sysExEnd   byte = 0xf7

	noteOn        byte = 0x90
	controlChange byte = 0xb0

	cmdLayout         byte = 0x00
	cmdSetColors      byte = 0x03
	cmdScrollText     byte = 0x07
	cmdBrightness     byte = 0x08
	cmdAwake          byte = 0x09
	cmdLEDFeedback    byte = 0x0a
	cmdProgrammerMode byte = 0x0e

	// MaxColorEntries is the most pads a single SetColors message may carry.
	MaxColorEntries = 81
)

var sysExHeader = []byte{sysExStart, 0x00, 0x20, 0x29, 0x02, 0x0d}

var (
	// ErrInvalidKey is returned when a command addresses a key outside the grid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrComplexColor is returned when a note message is asked to carry a complex colour.
	ErrComplexColor = errors.New("complex colour cannot be sent as a note")
	// ErrDataByte is returned when a colour or speed does not fit in 7 bits.
	ErrDataByte = errors.New("value above 127")
	// ErrTooManyColors is returned when SetColors exceeds MaxColorEntries.
	ErrTooManyColors = errors.New("too many colour entries")
	// ErrScrollTextFields is returned when a ScrollText field is set without its predecessor.
	ErrScrollTextFields = errors.New("scroll text fields must be set in order: loop, speed, color, text")
)

// checkData rejects values that would set the status bit inside a message.
func checkData(what string, values ...uint8) error {
	for _, v := range values {
		if v > 0x7f {
			return fmt.Errorf("%w: %s %d", ErrDataByte, what, v)
		}
	}
	return nil
}

// colorBytes returns the values c puts on the wire.
func colorBytes(c Color) []uint8 {
	switch {
	case c.Kind == KindRGB:
		return c.Values[:3]
	case c.Kind == KindFlashing && c.Complex:
		return c.Values[:2]
	default:
		return c.Values[:1]
	}
}

// Command is an outbound message.
type Command interface {
	// Name identifies the command in logs and metrics.
	Name() string
	appendTo(buf []byte) ([]byte, error)
}

// AppendCommand encodes cmd onto buf. On error buf is returned unchanged.
func AppendCommand(buf []byte, cmd Command) ([]byte, error) {
	out, err := cmd.appendTo(buf)
	if err != nil {
		return buf, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	return out, nil
}

// Encode returns the wire bytes of cmd.
func Encode(cmd Command) ([]byte, error) {
	return AppendCommand(nil, cmd)
}

func checkKey(k Key) error {
	if !Valid(k) {
		return fmt.Errorf("%w: %d", ErrInvalidKey, k)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func sysEx(buf []byte, cmd byte, data ...byte) []byte {
	buf = append(buf, sysExHeader...)
	buf = append(buf, cmd)
	buf = append(buf, data...)
	return append(buf, sysExEnd)
}

// GetVersions asks for the application and bootloader versions.
type GetVersions struct{}

func (GetVersions) Name() string { return "get_versions" }

func (GetVersions) appendTo(buf []byte) ([]byte, error) {
	return append(buf, sysExStart, 0x7e, 0x7f, 0x06, 0x01, sysExEnd), nil
}

// SetLayout selects a device layout.
type SetLayout struct{ Layout Layout }

func (SetLayout) Name() string { return "set_layout" }

func (c SetLayout) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdLayout, byte(c.Layout)), nil
}

// GetLayout asks for the current layout.
type GetLayout struct{}

func (GetLayout) Name() string { return "get_layout" }

func (GetLayout) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdLayout), nil
}

// SetProgrammerMode enters or leaves programmer mode.
type SetProgrammerMode struct{ Enabled bool }

func (SetProgrammerMode) Name() string { return "set_programmer_mode" }

func (c SetProgrammerMode) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdProgrammerMode, boolByte(c.Enabled)), nil
}

// GetProgrammerMode asks whether programmer mode is active.
type GetProgrammerMode struct{}

func (GetProgrammerMode) Name() string { return "get_programmer_mode" }

func (GetProgrammerMode) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdProgrammerMode), nil
}

// KeyOn lights one pad with a simple colour.
type KeyOn struct {
	Key   Key
	Color Color
}

func (KeyOn) Name() string { return "key_on" }

func (c KeyOn) appendTo(buf []byte) ([]byte, error) {
	if err := checkKey(c.Key); err != nil {
		return buf, err
	}
	if c.Color.Complex || c.Color.Kind > KindPulsing {
		return buf, fmt.Errorf("%w: %s", ErrComplexColor, c.Color)
	}
	if err := checkData("colour", c.Color.Values[0]); err != nil {
		return buf, err
	}
	return append(buf, noteOn+byte(c.Color.Kind), byte(c.Key), c.Color.Values[0]), nil
}

// KeyOff turns one pad off.
type KeyOff struct{ Key Key }

func (KeyOff) Name() string { return "key_off" }

func (c KeyOff) appendTo(buf []byte) ([]byte, error) {
	if err := checkKey(c.Key); err != nil {
		return buf, err
	}
	return append(buf, noteOn, byte(c.Key), 0), nil
}

// ColorEntry is one pad of a SetColors batch.
type ColorEntry struct {
	Key   Key
	Color Color
}

// SetColors lights up to 81 pads in one SysEx. Simple colours are sent
// with the matching complex type.
type SetColors struct{ Entries []ColorEntry }

func (SetColors) Name() string { return "set_colors" }

func (c SetColors) appendTo(buf []byte) ([]byte, error) {
	if len(c.Entries) > MaxColorEntries {
		return buf, fmt.Errorf("%w: %d", ErrTooManyColors, len(c.Entries))
	}
	out := append(buf, sysExHeader...)
	out = append(out, cmdSetColors)
	for _, e := range c.Entries {
		if err := checkKey(e.Key); err != nil {
			return buf, err
		}
		if err := checkData("colour", colorBytes(e.Color)...); err != nil {
			return buf, err
		}
		v := e.Color.Values
		switch e.Color.Kind {
		case KindFlashing:
			if e.Color.Complex {
				out = append(out, byte(KindFlashing), byte(e.Key), v[0], v[1])
			} else {
				out = append(out, byte(KindFlashing), byte(e.Key), v[0], 0)
			}
		case KindRGB:
			out = append(out, byte(KindRGB), byte(e.Key), v[0], v[1], v[2])
		default:
			out = append(out, byte(e.Color.Kind), byte(e.Key), v[0])
		}
	}
	return append(out, sysExEnd), nil
}

// ScrollText scrolls text across the grid. Every field is optional but
// each one requires the previous: Loop, Speed, Color, Text. A ScrollText
// with no fields stops any scrolling text.
type ScrollText struct {
	Loop  *bool
	Speed *uint8
	Color *TextColor
	Text  *string
}

// NewScrollText returns a fully specified ScrollText.
func NewScrollText(text string, loop bool, speed uint8, color TextColor) ScrollText {
	return ScrollText{Loop: &loop, Speed: &speed, Color: &color, Text: &text}
}

func (ScrollText) Name() string { return "scroll_text" }

func (c ScrollText) appendTo(buf []byte) ([]byte, error) {
	if (c.Speed != nil && c.Loop == nil) ||
		(c.Color != nil && c.Speed == nil) ||
		(c.Text != nil && c.Color == nil) {
		return buf, ErrScrollTextFields
	}
	if c.Speed != nil {
		if err := checkData("speed", *c.Speed); err != nil {
			return buf, err
		}
	}
	if c.Color != nil {
		n := 1
		if c.Color.RGB {
			n = 3
		}
		if err := checkData("text colour", c.Color.Values[:n]...); err != nil {
			return buf, err
		}
	}
	out := append(buf, sysExHeader...)
	out = append(out, cmdScrollText)
	if c.Loop != nil {
		out = append(out, boolByte(*c.Loop))
	}
	if c.Speed != nil {
		out = append(out, *c.Speed)
	}
	if c.Color != nil {
		if c.Color.RGB {
			out = append(out, 0x01, c.Color.Values[0], c.Color.Values[1], c.Color.Values[2])
		} else {
			out = append(out, 0x00, c.Color.Values[0])
		}
	}
	if c.Text != nil {
		for _, r := range *c.Text {
			// The firmware font only covers printable ASCII.
			if r < 0x20 || r > 0x7e {
				r = '?'
			}
			out = append(out, byte(r))
		}
	}
	return append(out, sysExEnd), nil
}

// SetAwake wakes the device or puts it to sleep.
type SetAwake struct{ Awake bool }

func (SetAwake) Name() string { return "set_awake" }

func (c SetAwake) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdAwake, boolByte(c.Awake)), nil
}

// GetAwake asks for the sleep state.
type GetAwake struct{}

func (GetAwake) Name() string { return "get_awake" }

func (GetAwake) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdAwake), nil
}

// SetBrightness sets LED brightness, 0..127.
type SetBrightness struct{ Level uint8 }

func (SetBrightness) Name() string { return "set_brightness" }

func (c SetBrightness) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdBrightness, c.Level&0x7f), nil
}

// GetBrightness asks for LED brightness.
type GetBrightness struct{}

func (GetBrightness) Name() string { return "get_brightness" }

func (GetBrightness) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdBrightness), nil
}

// SetLEDFeedback toggles whether pads light on press (internal) and when
// echoing incoming notes (external).
type SetLEDFeedback struct{ Internal, External bool }

func (SetLEDFeedback) Name() string { return "set_led_feedback" }

func (c SetLEDFeedback) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdLEDFeedback, boolByte(c.Internal), boolByte(c.External)), nil
}

// GetLEDFeedback asks for the LED feedback settings.
type GetLEDFeedback struct{}

func (GetLEDFeedback) Name() string { return "get_led_feedback" }

func (GetLEDFeedback) appendTo(buf []byte) ([]byte, error) {
	return sysEx(buf, cmdLEDFeedback), nil
}
