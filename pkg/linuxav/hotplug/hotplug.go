//go:build linux

// Package hotplug watches kernel uevents over netlink without cgo.
//
// The daemon uses it to notice when the sound card behind the open MIDI
// port goes away.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// Action constants for device events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystem names used by the daemon.
const (
	SubsystemSound = "sound"
	SubsystemUSB   = "usb"
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/pci0000:00/...
	Subsystem string            // "sound", "usb", etc.
	DevType   string            // Device type if available
	DevName   string            // Device node relative to /dev, e.g. "snd/midiC1D0"
	DevPath   string            // DEVPATH property
	Env       map[string]string // All environment variables from the event
}

// Card returns the ALSA card number a sound event refers to, or -1.
// Card nodes look like .../sound/card2 and device nodes like
// snd/midiC2D0 or snd/controlC2.
func (e Event) Card() int {
	if e.Subsystem != SubsystemSound {
		return -1
	}
	for _, path := range []string{e.DevPath, e.KObj} {
		idx := strings.LastIndex(path, "/card")
		if idx < 0 {
			continue
		}
		rest := path[idx+len("/card"):]
		if slash := strings.IndexByte(rest, '/'); slash >= 0 {
			rest = rest[:slash]
		}
		if n, err := strconv.Atoi(rest); err == nil {
			return n
		}
	}
	name := strings.TrimPrefix(e.DevName, "snd/")
	for _, prefix := range []string{"midiC", "controlC", "pcmC"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if n, err := strconv.Atoi(rest[:end]); err == nil {
			return n
		}
	}
	return -1
}

// Monitor listens for kernel device events via netlink.
type Monitor struct {
	fd        int
	filters   map[string]struct{}
	filtersMu sync.RWMutex
}

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// NewMonitor opens a netlink socket bound to the kernel broadcast group.
func NewMonitor() (*Monitor, error) {
	fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_DGRAM|syscall.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	addr := &syscall.SockaddrNetlink{
		Family: syscall.AF_NETLINK,
		Groups: 1,
	}
	if err := syscall.Bind(fd, addr); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	return &Monitor{
		fd:      fd,
		filters: make(map[string]struct{}),
	}, nil
}

// AddSubsystemFilter restricts Run to the given subsystems. With no
// filters every event passes. Safe for concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.filtersMu.Lock()
	m.filters[subsystem] = struct{}{}
	m.filtersMu.Unlock()
}

func (m *Monitor) accepts(subsystem string) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[subsystem]
	return ok
}

// Close releases the monitor resources.
func (m *Monitor) Close() error {
	return syscall.Close(m.fd)
}

// Run sends matching events to events until ctx is cancelled or the
// socket fails. The events channel is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	// A receive timeout lets the loop notice cancellation.
	tv := syscall.Timeval{Sec: 1}
	if err := syscall.SetsockoptTimeval(m.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	buf := make([]byte, 8192)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := syscall.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
				continue
			}
			return err
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.accepts(event.Subsystem) {
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseUEvent parses a kernel uevent message of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". It returns nil for malformed input.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	// libudev rebroadcasts carry a binary header before the uevent.
	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] != 0 {
				continue
			}
			rest := data[i+1:]
			seg := rest
			if end := bytes.IndexByte(rest, 0); end >= 0 {
				seg = rest[:end]
			}
			if idx := bytes.IndexByte(seg, '@'); idx > 0 && idx < 20 {
				data = rest
				break
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	action, kobj, ok := strings.Cut(string(parts[0]), "@")
	if !ok || action == "" {
		return nil
	}

	event := &Event{
		Action: action,
		KObj:   kobj,
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}
