//go:build linux

package alsa

import "unsafe"

// Compile-time struct size assertions. The rawmidi and card info structs
// contain no pointers, so the layout is the same on 32 and 64 bit.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [268]byte = [unsafe.Sizeof(sndRawMIDIInfo{})]byte{}
)

// Control interface IOCTLs.
const (
	sndrvCtlIoctlCardInfo               = 0x81785501
	sndrvCtlIoctlRawMIDINextDevice      = 0xc0045540
	sndrvCtlIoctlRawMIDIInfo            = 0xc10c5541
	sndrvCtlIoctlRawMIDIPreferSubdevice = 0x40045542
)

// Raw MIDI stream directions.
const (
	sndrvRawMIDIStreamOutput = 0
	sndrvRawMIDIStreamInput  = 1
)

// sndCtlCardInfo has size 376 bytes.
type sndCtlCardInfo struct {
	card       int32     // offset 0
	_          [4]byte   // padding
	id         [16]byte  // offset 8
	driver     [16]byte  // offset 24
	name       [32]byte  // offset 40
	longname   [80]byte  // offset 72
	reserved   [16]byte  // offset 152
	mixername  [80]byte  // offset 168
	components [128]byte // offset 248
}

// sndRawMIDIInfo has size 268 bytes.
type sndRawMIDIInfo struct {
	device          uint32   // offset 0
	subdevice       uint32   // offset 4
	stream          int32    // offset 8
	card            int32    // offset 12
	flags           uint32   // offset 16
	id              [64]byte // offset 20
	name            [80]byte // offset 84
	subname         [32]byte // offset 164
	subdevicesCount uint32   // offset 196
	subdevicesAvail uint32   // offset 200
	reserved        [64]byte // offset 204
}
