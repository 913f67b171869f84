// Package i3ipc is a minimal client for the i3 window manager's IPC socket.
//
// Messages are framed as the magic string "i3-ipc", a little-endian uint32
// payload length, a little-endian uint32 message type and a JSON payload.
// Replies to subscriptions have the high bit of the type set.
package i3ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MessageType identifies a request or reply.
type MessageType uint32

// Request types.
const (
	RunCommand    MessageType = 0
	GetWorkspaces MessageType = 1
	SubscribeType MessageType = 2
	GetOutputs    MessageType = 3
)

// EventType identifies an event reply.
type EventType uint32

const eventBit = 1 << 31

// Event types, with the event bit set as they appear on the wire.
const (
	WorkspaceEvent EventType = eventBit | 0
	OutputEvent    EventType = eventBit | 1
	ModeEvent      EventType = eventBit | 2
	WindowEvent    EventType = eventBit | 3
)

var eventNames = map[EventType]string{
	WorkspaceEvent: "workspace",
	OutputEvent:    "output",
	ModeEvent:      "mode",
	WindowEvent:    "window",
}

func (e EventType) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", uint32(e)&^eventBit)
}

const (
	magic      = "i3-ipc"
	headerSize = len(magic) + 8
	// maxPayload guards against a corrupt length field.
	maxPayload = 64 << 20
)

var (
	// ErrShortHeader is returned when the connection ends inside a header.
	ErrShortHeader = errors.New("i3ipc: short header")
	// ErrBadMagic is returned when a reply does not start with "i3-ipc".
	ErrBadMagic = errors.New("i3ipc: bad magic")
	// ErrPayloadTooLarge is returned for replies over 64 MiB.
	ErrPayloadTooLarge = errors.New("i3ipc: payload too large")
)

// appendMessage frames payload onto buf.
func appendMessage(buf []byte, t MessageType, payload []byte) []byte {
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(t))
	return append(buf, payload...)
}

// readMessage reads one framed message and returns its raw type and payload.
func readMessage(r io.Reader) (uint32, []byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, ErrShortHeader
		}
		return 0, nil, err
	}
	if !bytes.Equal(hdr[:len(magic)], []byte(magic)) {
		return 0, nil, ErrBadMagic
	}
	n := binary.LittleEndian.Uint32(hdr[len(magic):])
	t := binary.LittleEndian.Uint32(hdr[len(magic)+4:])
	if n > maxPayload {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, fmt.Errorf("read payload: %w", err)
	}
	return t, payload, nil
}
