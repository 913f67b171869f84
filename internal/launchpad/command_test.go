package launchpad

import (
	"bytes"
	"errors"
	"testing"
)

func sysex(data ...byte) []byte {
	out := []byte{0xf0, 0x00, 0x20, 0x29, 0x02, 0x0d}
	out = append(out, data...)
	return append(out, 0xf7)
}

func TestEncode(t *testing.T) {
	loop := false
	speed := uint8(15)
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{"get versions", GetVersions{}, []byte{0xf0, 0x7e, 0x7f, 0x06, 0x01, 0xf7}},
		{"set layout", SetLayout{Layout: LayoutProgrammer}, sysex(0x00, 0x7f)},
		{"get layout", GetLayout{}, sysex(0x00)},
		{"programmer on", SetProgrammerMode{Enabled: true}, sysex(0x0e, 0x01)},
		{"programmer off", SetProgrammerMode{}, sysex(0x0e, 0x00)},
		{"get programmer", GetProgrammerMode{}, sysex(0x0e)},
		{"key on static", KeyOn{Key: 11, Color: Simple(5)}, []byte{0x90, 11, 5}},
		{"key on flashing", KeyOn{Key: 99, Color: SimpleFlashing(9)}, []byte{0x91, 99, 9}},
		{"key on pulsing", KeyOn{Key: 55, Color: Pulse(37)}, []byte{0x92, 55, 37}},
		{"key off", KeyOff{Key: 42}, []byte{0x90, 42, 0}},
		{
			"set colors",
			SetColors{Entries: []ColorEntry{
				{Key: 11, Color: ComplexStatic(3)},
				{Key: 12, Color: Flash(9, 0)},
				{Key: 13, Color: ComplexPulsing(45)},
				{Key: 14, Color: RGBColor(127, 0, 64)},
			}},
			sysex(0x03,
				0, 11, 3,
				1, 12, 9, 0,
				2, 13, 45,
				3, 14, 127, 0, 64),
		},
		{"scroll stop", ScrollText{}, sysex(0x07)},
		{"scroll loop only", ScrollText{Loop: &loop}, sysex(0x07, 0x00)},
		{"scroll loop speed", ScrollText{Loop: &loop, Speed: &speed}, sysex(0x07, 0x00, 15)},
		{
			"scroll palette",
			NewScrollText("Hi", false, 15, PaletteText(3)),
			sysex(0x07, 0x00, 15, 0x00, 3, 'H', 'i'),
		},
		{
			"scroll rgb looping",
			NewScrollText("A", true, 7, RGBText(1, 2, 3)),
			sysex(0x07, 0x01, 7, 0x01, 1, 2, 3, 'A'),
		},
		{"scroll non ascii", NewScrollText("é", false, 1, PaletteText(3)), sysex(0x07, 0, 1, 0, 3, '?')},
		{"set awake", SetAwake{Awake: true}, sysex(0x09, 0x01)},
		{"get awake", GetAwake{}, sysex(0x09)},
		{"set brightness", SetBrightness{Level: 91}, sysex(0x08, 91)},
		{"brightness masked", SetBrightness{Level: 0xff}, sysex(0x08, 0x7f)},
		{"get brightness", GetBrightness{}, sysex(0x08)},
		{"led feedback", SetLEDFeedback{Internal: true}, sysex(0x0a, 1, 0)},
		{"get led feedback", GetLEDFeedback{}, sysex(0x0a)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.cmd)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	speed := uint8(1)
	text := "x"
	color := PaletteText(3)
	tooMany := make([]ColorEntry, MaxColorEntries+1)
	for i := range tooMany {
		tooMany[i] = ColorEntry{Key: 11, Color: ComplexStatic(1)}
	}

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"key on zero", KeyOn{Key: 0, Color: Simple(1)}, ErrInvalidKey},
		{"key on column zero", KeyOn{Key: 20, Color: Simple(1)}, ErrInvalidKey},
		{"key on over range", KeyOn{Key: 100, Color: Simple(1)}, ErrInvalidKey},
		{"key on complex", KeyOn{Key: 11, Color: RGBColor(1, 2, 3)}, ErrComplexColor},
		{"key off invalid", KeyOff{Key: 30}, ErrInvalidKey},
		{"set colors invalid key", SetColors{Entries: []ColorEntry{{Key: 10, Color: ComplexStatic(1)}}}, ErrInvalidKey},
		{"set colors too many", SetColors{Entries: tooMany}, ErrTooManyColors},
		{"key on palette over 127", KeyOn{Key: 11, Color: Simple(128)}, ErrDataByte},
		{"set colors rgb over 127", SetColors{Entries: []ColorEntry{{Key: 11, Color: RGBColor(1, 200, 3)}}}, ErrDataByte},
		{"set colors flash over 127", SetColors{Entries: []ColorEntry{{Key: 11, Color: Flash(5, 255)}}}, ErrDataByte},
		{"scroll speed over 127", NewScrollText("x", false, 128, PaletteText(3)), ErrDataByte},
		{"scroll rgb text over 127", NewScrollText("x", false, 10, RGBText(0, 0, 130)), ErrDataByte},
		{"scroll speed without loop", ScrollText{Speed: &speed}, ErrScrollTextFields},
		{"scroll text without color", ScrollText{Text: &text}, ErrScrollTextFields},
		{"scroll color without speed", ScrollText{Color: &color}, ErrScrollTextFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte{0xaa}
			out, err := AppendCommand(buf, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !bytes.Equal(out, buf) {
				t.Errorf("buffer modified on error: % x", out)
			}
		})
	}
}

func TestAppendCommandReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	out, err := AppendCommand(buf, KeyOn{Key: 11, Color: Simple(1)})
	if err != nil {
		t.Fatal(err)
	}
	out, err = AppendCommand(out[:0], KeyOff{Key: 12})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{0x90, 12, 0}) {
		t.Errorf("got % x", out)
	}
	if &out[0] != &buf[:1][0] {
		t.Error("AppendCommand reallocated a buffer with spare capacity")
	}
}
