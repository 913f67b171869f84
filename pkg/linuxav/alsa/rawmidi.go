//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"unsafe"
)

// ErrBadDevice is returned by ParseRawMIDIDevice for malformed identifiers.
var ErrBadDevice = errors.New("malformed raw MIDI device")

// RawMIDIPort is one raw MIDI subdevice.
type RawMIDIPort struct {
	Card      int
	Device    int
	Subdevice int
	CardID    string
	CardName  string
	Name      string
	SubName   string
	Input     bool
	Output    bool
}

// ID returns the ALSA identifier of the port, e.g. "hw:1,0,0".
func (p RawMIDIPort) ID() string {
	return FormatRawMIDIDevice(p.Card, p.Device, p.Subdevice)
}

// Direction describes which streams the port supports.
func (p RawMIDIPort) Direction() string {
	switch {
	case p.Input && p.Output:
		return "in/out"
	case p.Input:
		return "in"
	case p.Output:
		return "out"
	default:
		return "-"
	}
}

// Matches reports whether name or subname contains s.
func (p RawMIDIPort) Matches(s string) bool {
	return strings.Contains(p.Name, s) || strings.Contains(p.SubName, s)
}

// FormatRawMIDIDevice creates an ALSA device string.
func FormatRawMIDIDevice(card, device, subdevice int) string {
	return "hw:" + strconv.Itoa(card) + "," + strconv.Itoa(device) + "," + strconv.Itoa(subdevice)
}

// ParseRawMIDIDevice parses "hw:c,d" or "hw:c,d,s". The subdevice
// defaults to 0.
func ParseRawMIDIDevice(s string) (card, device, subdevice int, err error) {
	rest, ok := strings.CutPrefix(s, "hw:")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadDevice, s)
	}
	parts := strings.Split(rest, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadDevice, s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadDevice, s)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

func controlPath(card int) string {
	return fmt.Sprintf("/dev/snd/controlC%d", card)
}

func rawMIDIPath(card, device int) string {
	return fmt.Sprintf("/dev/snd/midiC%dD%d", card, device)
}

// cardNumbers lists the cards that have a control device, ascending.
func cardNumbers() []int {
	matches, _ := filepath.Glob("/dev/snd/controlC*")
	cards := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), "controlC"))
		if err == nil {
			cards = append(cards, n)
		}
	}
	sort.Ints(cards)
	return cards
}

// ListRawMIDI returns every raw MIDI subdevice on the system.
func ListRawMIDI() ([]RawMIDIPort, error) {
	var ports []RawMIDIPort
	for _, card := range cardNumbers() {
		cardPorts, err := listCard(card)
		if err != nil {
			continue
		}
		ports = append(ports, cardPorts...)
	}
	return ports, nil
}

func listCard(card int) ([]RawMIDIPort, error) {
	ctlFd, err := syscall.Open(controlPath(card), syscall.O_RDONLY|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer syscall.Close(ctlFd)

	cardInfo := sndCtlCardInfo{}
	if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlCardInfo, unsafe.Pointer(&cardInfo)); err != nil {
		return nil, fmt.Errorf("card info: %w", err)
	}

	var ports []RawMIDIPort
	device := int32(-1)
	for {
		if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlRawMIDINextDevice, unsafe.Pointer(&device)); err != nil {
			break
		}
		if device < 0 {
			break
		}

		byIndex := make(map[uint32]*RawMIDIPort)
		for _, stream := range []int32{sndrvRawMIDIStreamOutput, sndrvRawMIDIStreamInput} {
			for sub := uint32(0); ; sub++ {
				info := sndRawMIDIInfo{device: uint32(device), subdevice: sub, stream: stream}
				if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlRawMIDIInfo, unsafe.Pointer(&info)); err != nil {
					break
				}
				p, ok := byIndex[sub]
				if !ok {
					p = &RawMIDIPort{
						Card:      card,
						Device:    int(device),
						Subdevice: int(sub),
						CardID:    cstr(cardInfo.id[:]),
						CardName:  cstr(cardInfo.name[:]),
						Name:      cstr(info.name[:]),
						SubName:   cstr(info.subname[:]),
					}
					byIndex[sub] = p
				}
				if stream == sndrvRawMIDIStreamOutput {
					p.Output = true
				} else {
					p.Input = true
				}
				if sub+1 >= info.subdevicesCount {
					break
				}
			}
		}

		subs := make([]uint32, 0, len(byIndex))
		for sub := range byIndex {
			subs = append(subs, sub)
		}
		sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
		for _, sub := range subs {
			ports = append(ports, *byIndex[sub])
		}
	}
	return ports, nil
}

// FindRawMIDI returns the first port whose name or subname contains match
// and that supports both directions.
func FindRawMIDI(match string) (RawMIDIPort, error) {
	ports, err := ListRawMIDI()
	if err != nil {
		return RawMIDIPort{}, err
	}
	for _, p := range ports {
		if p.Input && p.Output && p.Matches(match) {
			return p, nil
		}
	}
	return RawMIDIPort{}, os.ErrNotExist
}

// RawMIDI is an open raw MIDI device.
type RawMIDI struct {
	file *os.File
	Port RawMIDIPort
}

// OpenRawMIDI opens port for reading and writing. The control device is
// held open across the open call so the subdevice preference applies.
func OpenRawMIDI(port RawMIDIPort) (*RawMIDI, error) {
	ctlFd, err := syscall.Open(controlPath(port.Card), syscall.O_RDONLY|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open control: %w", err)
	}
	defer syscall.Close(ctlFd)

	sub := int32(port.Subdevice)
	if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlRawMIDIPreferSubdevice, unsafe.Pointer(&sub)); err != nil {
		return nil, fmt.Errorf("prefer subdevice %d: %w", port.Subdevice, err)
	}

	f, err := os.OpenFile(rawMIDIPath(port.Card, port.Device), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port.ID(), err)
	}
	return &RawMIDI{file: f, Port: port}, nil
}

// Read reads raw MIDI bytes. It blocks until data arrives.
func (r *RawMIDI) Read(p []byte) (int, error) {
	return r.file.Read(p)
}

// Write writes raw MIDI bytes.
func (r *RawMIDI) Write(p []byte) (int, error) {
	return r.file.Write(p)
}

// Close closes the device, unblocking pending reads.
func (r *RawMIDI) Close() error {
	return r.file.Close()
}

// String returns the device identifier.
func (r *RawMIDI) String() string {
	return r.Port.ID()
}
