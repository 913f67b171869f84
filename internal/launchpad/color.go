package launchpad

import "fmt"

// Kind is the lighting mode of a pad.
type Kind uint8

// Lighting modes. The order matches the MIDI channel used by note messages
// and the colour type byte used by the SetColors SysEx.
const (
	KindStatic Kind = iota
	KindFlashing
	KindPulsing
	KindRGB
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindFlashing:
		return "flashing"
	case KindPulsing:
		return "pulsing"
	case KindRGB:
		return "rgb"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Color is a pad colour. Simple colours are sent as note messages, one pad
// per message; complex colours need the SetColors SysEx and are batched.
// Colors are comparable.
type Color struct {
	Complex bool
	Kind    Kind
	// Values holds the palette index (static, pulsing), the two palette
	// indices b, a (flashing) or r, g, b (rgb, 0..127).
	Values [3]uint8
}

// Off is an unlit pad.
var Off = Simple(0)

// Simple returns a static palette colour sent as a note message.
func Simple(n uint8) Color {
	return Color{Kind: KindStatic, Values: [3]uint8{n}}
}

// SimpleFlashing returns a palette colour flashing against off.
func SimpleFlashing(n uint8) Color {
	return Color{Kind: KindFlashing, Values: [3]uint8{n}}
}

// Pulse returns a pulsing palette colour.
func Pulse(n uint8) Color {
	return Color{Kind: KindPulsing, Values: [3]uint8{n}}
}

// ComplexStatic returns a static palette colour sent through SetColors.
func ComplexStatic(n uint8) Color {
	return Color{Complex: true, Kind: KindStatic, Values: [3]uint8{n}}
}

// Flash returns a colour alternating between palette entries b and a.
func Flash(b, a uint8) Color {
	return Color{Complex: true, Kind: KindFlashing, Values: [3]uint8{b, a}}
}

// ComplexPulsing returns a pulsing palette colour sent through SetColors.
func ComplexPulsing(n uint8) Color {
	return Color{Complex: true, Kind: KindPulsing, Values: [3]uint8{n}}
}

// RGBColor returns a true colour, each channel 0..127.
func RGBColor(r, g, b uint8) Color {
	return Color{Complex: true, Kind: KindRGB, Values: [3]uint8{r, g, b}}
}

func (c Color) String() string {
	prefix := "simple"
	if c.Complex {
		prefix = "complex"
	}
	switch c.Kind {
	case KindFlashing:
		if c.Complex {
			return fmt.Sprintf("%s/%s(%d,%d)", prefix, c.Kind, c.Values[0], c.Values[1])
		}
	case KindRGB:
		return fmt.Sprintf("%s/%s(%d,%d,%d)", prefix, c.Kind, c.Values[0], c.Values[1], c.Values[2])
	}
	return fmt.Sprintf("%s/%s(%d)", prefix, c.Kind, c.Values[0])
}

// TextColor selects the colour of scrolling text.
type TextColor struct {
	RGB    bool
	Values [3]uint8
}

// PaletteText returns a palette text colour.
func PaletteText(n uint8) TextColor {
	return TextColor{Values: [3]uint8{n}}
}

// RGBText returns a true-colour text colour.
func RGBText(r, g, b uint8) TextColor {
	return TextColor{RGB: true, Values: [3]uint8{r, g, b}}
}

// Layout is a device layout selectable through SysEx.
type Layout uint8

// Layouts understood by the Launchpad Mini MK3.
const (
	LayoutSession    Layout = 0x00
	LayoutDrums      Layout = 0x04
	LayoutKeys       Layout = 0x05
	LayoutUser       Layout = 0x06
	LayoutProgrammer Layout = 0x7f
)
